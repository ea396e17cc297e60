package scanning

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("NewScanner", func() {
	var (
		cfg     Config
		scanner Scanner
		err     error
	)

	BeforeEach(func() {
		cfg = Config{
			GoogleAPIKey: "test-google-key",
			OpenAIKey:    "test-openai-key",
		}
	})

	JustBeforeEach(func() {
		scanner, err = NewScanner(cfg)
	})

	AfterEach(func() {
		if scanner != nil {
			scanner.Close()
		}
	})

	When("the provider is gemini", func() {
		BeforeEach(func() {
			cfg.Provider = "gemini"
		})

		It("should return a Gemini scanner", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(scanner).To(BeAssignableToTypeOf(&Gemini{}))
		})
	})

	When("the provider is openai", func() {
		BeforeEach(func() {
			cfg.Provider = "openai"
		})

		It("should return an OpenAI scanner", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(scanner).To(BeAssignableToTypeOf(&OpenAI{}))
		})
	})

	When("the provider is openai without an API key", func() {
		BeforeEach(func() {
			cfg.Provider = "openai"
			cfg.OpenAIKey = ""
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})

	When("the provider is testing", func() {
		BeforeEach(func() {
			cfg.Provider = "testing"
		})

		It("should return the deterministic stub", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(scanner).To(BeAssignableToTypeOf(&Stub{}))
		})
	})

	When("the provider value is unrecognized", func() {
		// Documented soft-failure policy: unknown values select the
		// default provider instead of failing. Debatable, since it masks
		// configuration typos, but it is the contract.
		BeforeEach(func() {
			cfg.Provider = "does-not-exist"
		})

		It("should fall back to the Gemini default", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(scanner).To(BeAssignableToTypeOf(&Gemini{}))
		})
	})

	When("the provider casing differs", func() {
		BeforeEach(func() {
			cfg.Provider = " Testing "
		})

		It("should still select the stub", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(scanner).To(BeAssignableToTypeOf(&Stub{}))
		})
	})
})

var _ = Describe("Stub", func() {
	var (
		stub *Stub
		raw  string
		err  error
	)

	BeforeEach(func() {
		stub = NewStub()
	})

	JustBeforeEach(func() {
		raw, err = stub.Scan("/uploads/receipt_1700000000_abcd1234.jpg")
	})

	It("should not return an error", func() {
		Expect(err).NotTo(HaveOccurred())
	})

	It("should return a payload the parser accepts", func() {
		draft, parseErr := ParseResponse(raw, "/uploads/receipt_1700000000_abcd1234.jpg")
		Expect(parseErr).NotTo(HaveOccurred())

		Expect(draft.Category).To(Equal("Lebensmittel"))
		Expect(draft.Description).To(Equal("Test Receipt (Billa)"))
		Expect(draft.Currency).To(Equal("EUR"))
		Expect(draft.Amount.Equal(decimal.RequireFromString("25.99"))).To(BeTrue())
		Expect(draft.AmountEUR.Equal(draft.Amount)).To(BeTrue())
		Expect(draft.ExchangeRate.Equal(decimal.NewFromInt(1))).To(BeTrue())
		Expect(draft.IsVerified).To(BeFalse())
	})

	It("should date the payload today", func() {
		draft, parseErr := ParseResponse(raw, "x.jpg")
		Expect(parseErr).NotTo(HaveOccurred())
		Expect(draft.Date.Format("02.01.2006")).To(Equal(time.Now().Format("02.01.2006")))
	})
})

var _ = Describe("BuildPrompt", func() {
	When("categories are configured", func() {
		It("should weave them into the category guidance", func() {
			prompt := BuildPrompt([]string{"Lebensmittel", "Transport"})
			Expect(prompt).To(ContainSubstring("Lebensmittel, Transport"))
		})
	})

	It("should request the day.month.year date format", func() {
		Expect(BuildPrompt(nil)).To(ContainSubstring("DD.MM.YYYY"))
	})

	It("should request the UNKNOWN sentinel for non-EUR receipts", func() {
		Expect(BuildPrompt(nil)).To(ContainSubstring("'UNKNOWN'"))
	})

	It("should forbid markdown fences", func() {
		Expect(BuildPrompt(nil)).To(ContainSubstring("no markdown code fences"))
	})
})
