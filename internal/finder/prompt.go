package finder

import (
	"fmt"
	"strings"
)

// SystemInstruction is sent as the system message of every generation call.
const SystemInstruction = "You are a domain name expert that creates professional, brandable domain names. Return only domain names, one per line or comma-separated."

// BuildPrompt renders the user prompt for keyword, suffix and max names.
func BuildPrompt(keyword, suffix string, max int) string {
	suffix = strings.TrimPrefix(suffix, ".")
	var b strings.Builder
	fmt.Fprintf(&b, "Generate exactly %d short, professional, brandable domain names for a business about %q.\n\n", max, keyword)
	b.WriteString("CRITICAL REQUIREMENTS:\n")
	b.WriteString("- Return ONLY domain names, one per line or comma-separated\n")
	b.WriteString("- Each name must join 2-3 words maximum (e.g. \"HomeShield\", \"WarrantyPro\", \"CoverMyHome\")\n")
	b.WriteString("- Use brand words such as Shield, Pro, Plus, Prime, Nest, Assure, Care, Plan, Protect, Safe, Trust, Cover, Secure, Total, Guard\n")
	b.WriteString("- NO repetitive combinations (avoid names like repairhomewarrantyrepair)\n")
	b.WriteString("- NO meaningless word repetition\n")
	fmt.Fprintf(&b, "- All domains MUST end with .%s\n", suffix)
	b.WriteString("- NO numbering, bullets, dashes, or extra text\n")
	b.WriteString("- Use PascalCase (capitalize each word, no spaces)\n\n")
	fmt.Fprintf(&b, "Sample shape: HomeShieldPro.%s, WarrantyNest.%s, SafeHomePlan.%s\n\n", suffix, suffix, suffix)
	b.WriteString("Return ONLY the domain names, nothing else:")
	return b.String()
}
