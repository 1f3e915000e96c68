// Copyright 2025 UMH Systems GmbH
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache_test

import (
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/cache"
)

type record struct {
	name string
}

var _ = Describe("TTL", func() {
	Context("within the TTL", func() {
		It("returns the stored value", func() {
			c := cache.New[*record](time.Minute, nil)
			c.Set("a", &record{name: "first"})

			value, ok := c.Get("a")
			Expect(ok).To(BeTrue())
			Expect(value.name).To(Equal("first"))
		})

		It("replaces the prior entry on Set", func() {
			c := cache.New[*record](time.Minute, nil)
			first := &record{name: "first"}
			c.Set("a", first)
			c.Set("a", &record{name: "second"})

			value, ok := c.Get("a")
			Expect(ok).To(BeTrue())
			Expect(value.name).To(Equal("second"))
			Expect(first.name).To(Equal("first"))
			Expect(c.Len()).To(Equal(1))
		})

		It("reports absent keys as misses", func() {
			c := cache.New[string](time.Minute, nil)
			_, ok := c.Get("missing")
			Expect(ok).To(BeFalse())
		})
	})

	Context("after the TTL elapsed", func() {
		It("misses and removes the stale entry", func() {
			c := cache.New[string](20*time.Millisecond, nil)
			c.Set("a", "value")
			Expect(c.Len()).To(Equal(1))

			time.Sleep(40 * time.Millisecond)

			// Expiry is lazy: the entry stays until a Get observes it.
			Expect(c.Len()).To(Equal(1))
			_, ok := c.Get("a")
			Expect(ok).To(BeFalse())
			Expect(c.Len()).To(Equal(0))
		})
	})

	Context("with a zero TTL", func() {
		It("never hits", func() {
			c := cache.New[string](0, nil)
			c.Set("a", "value")

			_, ok := c.Get("a")
			Expect(ok).To(BeFalse())
			Expect(c.Len()).To(Equal(0))
		})

		It("treats a negative TTL as zero", func() {
			c := cache.New[string](-time.Second, nil)
			Expect(c.TTL()).To(Equal(time.Duration(0)))
		})
	})

	It("clears every entry", func() {
		c := cache.New[int](time.Minute, nil)
		for i := 0; i < 5; i++ {
			c.Set(fmt.Sprintf("k%d", i), i)
		}
		Expect(c.Len()).To(Equal(5))

		c.Clear()
		Expect(c.Len()).To(Equal(0))
		_, ok := c.Get("k1")
		Expect(ok).To(BeFalse())
	})

	It("serializes concurrent access", func() {
		c := cache.New[int](time.Minute, nil)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer GinkgoRecover()
				defer wg.Done()
				key := fmt.Sprintf("k%d", i%10)
				c.Set(key, i)
				_, _ = c.Get(key)
			}(i)
		}
		wg.Wait()

		Expect(c.Len()).To(Equal(10))
	})
})
