package enroll

import "testing"

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "empty", in: "", want: ""},
		{name: "lower + trim", in: "  Foo@Example.COM ", want: "foo@example.com"},
		{name: "non-gmail keeps dots", in: "a.b.c@example.com", want: "a.b.c@example.com"},
		{name: "non-gmail keeps alias", in: "abc+promo@example.com", want: "abc+promo@example.com"},
		{name: "gmail strips dots", in: "a.b@gmail.com", want: "ab@gmail.com"},
		{name: "gmail strips alias", in: "ab+promo@gmail.com", want: "ab@gmail.com"},
		{name: "gmail strips alias then dots", in: "a.b+promo.codes@gmail.com", want: "ab@gmail.com"},
		{name: "googlemail folds to gmail", in: "A.b@googlemail.com", want: "ab@gmail.com"},
		{name: "no at sign", in: "not-an-email", want: "not-an-email"},
		{name: "empty local part", in: "@example.com", want: "@example.com"},
		{name: "empty domain", in: "abc@", want: "abc@"},
		{name: "multiple at signs", in: "a@b@gmail.com", want: "a@b@gmail.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeEmail(tt.in); got != tt.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeEmailIdempotent(t *testing.T) {
	emails := []string{
		"",
		"Foo@Example.com",
		"a.b+promo@gmail.com",
		"a.b@googlemail.com",
		"garbage",
		"a@b@c",
	}
	for _, e := range emails {
		once := NormalizeEmail(e)
		if twice := NormalizeEmail(once); twice != once {
			t.Errorf("NormalizeEmail not idempotent for %q: %q != %q", e, twice, once)
		}
	}
}

func TestNormalizeEmailGmailAliasesFold(t *testing.T) {
	aliases := []string{"a.b+promo@gmail.com", "ab@gmail.com", "a.b@googlemail.com", "A.B+x.y@GMAIL.COM"}
	for _, e := range aliases {
		if got := NormalizeEmail(e); got != "ab@gmail.com" {
			t.Errorf("NormalizeEmail(%q) = %q, want ab@gmail.com", e, got)
		}
	}
}
