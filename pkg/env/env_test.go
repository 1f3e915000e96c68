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

package env_test

import (
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/united-manufacturing-hub/scrutiny-exporter/pkg/env"
)

var _ = Describe("Env", func() {
	const key = "SCRUTINY_EXPORTER_ENV_TEST"

	AfterEach(func() {
		Expect(os.Unsetenv(key)).To(Succeed())
	})

	Context("GetAsString", func() {
		It("returns the default when unset", func() {
			value, err := env.GetAsString(key, false, "fallback")
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal("fallback"))
		})

		It("fails when a required variable is unset", func() {
			_, err := env.GetAsString(key, true, "")
			Expect(err).To(HaveOccurred())
		})

		It("treats a blank value as unset and trims whitespace", func() {
			GinkgoT().Setenv(key, "   ")
			value, err := env.GetAsString(key, false, "fallback")
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal("fallback"))

			GinkgoT().Setenv(key, " http://scrutiny:8080 ")
			value, err = env.GetAsString(key, false, "fallback")
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal("http://scrutiny:8080"))
		})
	})

	Context("GetAsInt", func() {
		It("parses integers", func() {
			GinkgoT().Setenv(key, "9901")
			value, err := env.GetAsInt(key, false, 9900)
			Expect(err).ToNot(HaveOccurred())
			Expect(value).To(Equal(9901))
		})

		It("reports a malformed integer and returns the default", func() {
			GinkgoT().Setenv(key, "ninety")
			value, err := env.GetAsInt(key, false, 9900)
			Expect(err).To(HaveOccurred())
			Expect(value).To(Equal(9900))
		})
	})

	Context("GetAsBool", func() {
		DescribeTable("recognized spellings",
			func(raw string, expected bool) {
				GinkgoT().Setenv(key, raw)
				value, err := env.GetAsBool(key, false, !expected)
				Expect(err).ToNot(HaveOccurred())
				Expect(value).To(Equal(expected))
			},
			Entry("true", "true", true),
			Entry("yes", "YES", true),
			Entry("1", "1", true),
			Entry("off", "off", false),
			Entry("0", "0", false),
		)

		It("rejects other values", func() {
			GinkgoT().Setenv(key, "maybe")
			_, err := env.GetAsBool(key, false, false)
			Expect(err).To(HaveOccurred())
		})
	})
})
