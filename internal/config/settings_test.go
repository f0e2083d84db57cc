package config_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"code.cloudfoundry.org/pow-token-cli/internal/config"
)

var _ = Describe("Settings", func() {
	Describe("TokenEndpoint", func() {
		It("appends the token path to the server url", func() {
			s := config.Settings{ServerURL: "https://pow.example.com"}
			Expect(s.TokenEndpoint()).To(Equal("https://pow.example.com/api/pow/token"))
		})

		It("strips trailing slashes", func() {
			s := config.Settings{ServerURL: "https://pow.example.com//"}
			Expect(s.TokenEndpoint()).To(Equal("https://pow.example.com/api/pow/token"))
		})
	})

	Describe("Configured", func() {
		It("requires both a server url and an api key", func() {
			Expect(config.Settings{ServerURL: "http://a"}.Configured()).To(BeFalse())
			Expect(config.Settings{APIKey: "key"}.Configured()).To(BeFalse())
			Expect(config.Settings{ServerURL: "http://a", APIKey: "key"}.Configured()).To(BeTrue())
		})
	})

	Describe("Proxy", func() {
		It("returns the proxy url when enabled", func() {
			s := config.Settings{ProxyEnabled: true, ProxyURL: "http://proxy:8080"}

			u, err := s.Proxy()
			Expect(err).ToNot(HaveOccurred())
			Expect(u.String()).To(Equal("http://proxy:8080"))
		})

		It("ignores the proxy url when disabled", func() {
			s := config.Settings{ProxyEnabled: false, ProxyURL: "http://proxy:8080"}

			u, err := s.Proxy()
			Expect(err).ToNot(HaveOccurred())
			Expect(u).To(BeNil())
		})

		It("returns nil when enabled without a url", func() {
			s := config.Settings{ProxyEnabled: true}

			u, err := s.Proxy()
			Expect(err).ToNot(HaveOccurred())
			Expect(u).To(BeNil())
		})

		It("returns an error for an unparsable url", func() {
			s := config.Settings{ProxyEnabled: true, ProxyURL: "http://[::1"}

			_, err := s.Proxy()
			Expect(err).To(HaveOccurred())
		})
	})

	It("masks the api key when printed", func() {
		s := config.Settings{ServerURL: "http://a", APIKey: "super-secret"}
		Expect(s.String()).ToNot(ContainSubstring("super-secret"))
		Expect(s.String()).To(ContainSubstring("http://a"))
	})
})
