package core

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// columnAliases lists, per canonical key, the header spellings accepted in
// spreadsheets. ASCII forms come first, then localized labels.
var columnAliases = []struct {
	key     string
	aliases []string
}{
	{KeyFullName, []string{"fullname", "name", "full_name", "full name", "name_ar", "الاسم", "الاسم الكامل"}},
	{KeyMembershipID, []string{"membershipid", "id", "membership_id", "رقم العضوية"}},
	{KeyPhone, []string{"phone", "telephone", "tel", "الهاتف"}},
	{KeyEmail, []string{"email", "mail", "البريد الإلكتروني", "البريد_الإلكتروني"}},
	{KeyAddress, []string{"address", "address_ar", "العنوان"}},
	{KeyGender, []string{"gender", "sex", "الجنس"}},
	{KeyStatus, []string{"status", "الحالة"}},
	{KeyMemberType, []string{"membertype", "member_type", "type", "نوع العضوية"}},
	{KeyMembershipDate, []string{"membershipdate", "membership_date"}},
	{KeyJoinedAt, []string{"joinedat", "joined_at", "joined", "join_date", "تاريخ العضوية", "تاريخ_العضوية", "تاريخ الانضمام", "تاريخ_الانضمام"}},
	{KeyEducationLevel, []string{"educationlevel", "education", "education_level", "المستوى الدراسي"}},
	{KeyOccupation, []string{"occupation", "job", "العمل", "المهنة"}},
	{KeyRole, []string{"role", "position", "المهمة", "المهمة (نص)"}},
	{KeyBio, []string{"bio", "notes", "description", "نبذة", "ملاحظات"}},
	{KeyPDFURL, []string{"pdfurl", "pdf_url", "cv", "resume", "السيرة الذاتية"}},
	{KeyCIN, []string{"cin", "cin_number", "الرقم_الوطني", "الرقم الوطني"}},
	{KeyPhotoURL, []string{"photourl", "photo_url", "image", "الصورة"}},
	{KeyNeighborhood, []string{"neighborhood", "area", "الحي"}},
	{KeyFinancialCommitment, []string{"financialcommitment", "financial_commitment", "الالتزام_المالي", "الالتزام المالي"}},
}

var (
	headerSpaces  = regexp.MustCompile(`\s+`)
	headerNonWord = regexp.MustCompile(`[^a-z0-9_]`)
)

// TemplateHeaders returns one header per importable field, in import order.
func TemplateHeaders() []string {
	headers := make([]string, 0, len(columnAliases))
	for _, c := range columnAliases {
		if c.key == KeyJoinedAt {
			continue
		}
		headers = append(headers, c.key)
	}
	return headers
}

// LocalizedHeader returns the first Arabic alias for key, or "" when the
// field has none.
func LocalizedHeader(key string) string {
	for _, c := range columnAliases {
		if c.key != key {
			continue
		}
		for _, a := range c.aliases {
			if strings.IndexFunc(a, func(r rune) bool { return r > unicode.MaxASCII }) >= 0 {
				return a
			}
		}
	}
	return ""
}

// headerForms returns the lowercase trimmed header and its ASCII form.
func headerForms(header string) (lower, ascii string) {
	lower = strings.ToLower(strings.TrimSpace(norm.NFC.String(header)))
	ascii = headerNonWord.ReplaceAllString(headerSpaces.ReplaceAllString(lower, "_"), "")
	return lower, ascii
}

// MapRow maps a spreadsheet row with arbitrary header language, casing and
// punctuation into a field bag. Fields with no usable cell are omitted.
func MapRow(row map[string]any) RawFieldBag {
	headers := make([]string, 0, len(row))
	for h := range row {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	// ASCII forms are indexed first so a literal header always wins a collision.
	index := make(map[string]any, len(row)*2)
	for _, h := range headers {
		if _, ascii := headerForms(h); ascii != "" {
			index[ascii] = row[h]
		}
	}
	for _, h := range headers {
		lower, _ := headerForms(h)
		index[lower] = row[h]
	}

	bag := RawFieldBag{}
	for _, c := range columnAliases {
		for _, alias := range c.aliases {
			v, ok := index[norm.NFC.String(alias)]
			if !ok || isBlank(v) {
				continue
			}
			bag[c.key] = v
			break
		}
	}
	return bag
}
