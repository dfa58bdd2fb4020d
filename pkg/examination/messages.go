package examination

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys resolved through the catalog.
const (
	MsgRequired     = "validation.required"
	MsgMinLength    = "validation.min_length"
	MsgMaxLength    = "validation.max_length"
	MsgPattern      = "validation.pattern"
	MsgSubmitFailed = "submission.failed"
)

var defaultCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.Arabic))
	entries := map[language.Tag]map[string]string{
		language.Arabic: {
			MsgRequired:     "هذا الحقل مطلوب",
			MsgMinLength:    "يجب أن يحتوي هذا الحقل على %d أحرف على الأقل",
			MsgMaxLength:    "يجب ألا يتجاوز هذا الحقل %d حرفًا",
			MsgPattern:      "القيمة المدخلة غير صالحة",
			MsgSubmitFailed: "حدث خطأ أثناء حفظ الفحص",
		},
		language.English: {
			MsgRequired:     "This field is required",
			MsgMinLength:    "Must be at least %d characters",
			MsgMaxLength:    "Must be at most %d characters",
			MsgPattern:      "Invalid value",
			MsgSubmitFailed: "Failed to save the examination",
		},
	}
	for tag, msgs := range entries {
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic(err)
			}
		}
	}
	return b
}

// Messages renders localized validation and submission messages.
type Messages struct {
	printer *message.Printer
}

// NewMessages returns messages for tag; unknown tags fall back to Arabic.
func NewMessages(tag language.Tag) Messages {
	return Messages{printer: message.NewPrinter(tag, message.Catalog(defaultCatalog))}
}

// ParseLocale maps a BCP 47 string to a language tag, defaulting to Arabic.
func ParseLocale(locale string) language.Tag {
	if locale == "" {
		return language.Arabic
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return language.Arabic
	}
	return tag
}

func (m Messages) text(key string, args ...any) string {
	if m.printer == nil {
		m = NewMessages(language.Arabic)
	}
	return m.printer.Sprintf(key, args...)
}

// Required returns the required-field message.
func (m Messages) Required() string { return m.text(MsgRequired) }

// MinLength returns the minimum-length message for n.
func (m Messages) MinLength(n int) string { return m.text(MsgMinLength, n) }

// MaxLength returns the maximum-length message for n.
func (m Messages) MaxLength(n int) string { return m.text(MsgMaxLength, n) }

// Pattern returns the pattern-mismatch message.
func (m Messages) Pattern() string { return m.text(MsgPattern) }

// SubmitFailed returns the generic submission failure message.
func (m Messages) SubmitFailed() string { return m.text(MsgSubmitFailed) }
