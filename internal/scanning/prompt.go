package scanning

import "strings"

// BuildPrompt composes the extraction prompt shared by the network-based
// providers. The category guidance is generated from the configured category
// list so the model's free-text categorization loosely matches the
// application's taxonomy; the choice is guided, not enforced.
func BuildPrompt(categories []string) string {
	categoryHint := "guess based on the purchased items, e.g. Groceries, Dining Out, Transport"
	if len(categories) > 0 {
		categoryHint = "guess based on the purchased items, preferably one of: " + strings.Join(categories, ", ")
	}

	var b strings.Builder
	b.WriteString("Analyze this receipt image. Extract the following fields as a single JSON object:\n")
	b.WriteString("'date' (transaction date in DD.MM.YYYY format),\n")
	b.WriteString("'total_amount' (the final total as a decimal number),\n")
	b.WriteString("'currency' (ISO code),\n")
	b.WriteString("'category' (" + categoryHint + "),\n")
	b.WriteString("and 'description' (the shop or merchant name).\n")
	b.WriteString("If the currency is not EUR, return 'UNKNOWN' for the currency field instead of converting.\n")
	b.WriteString("Return ONLY the raw JSON object, no prose and no markdown code fences.")
	return b.String()
}
