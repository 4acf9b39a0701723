package utils

import "testing"

func TestValidateDOI(t *testing.T) {
	valid := []string{
		"10.5281/zenodo.1234",
		"10.1000/182",
		"10.1234/jrnl.2026.42",
		"10.123456789/suffix",
		"  10.5281/zenodo.1234  ", // surrounding whitespace trimmed
	}
	for _, doi := range valid {
		if !ValidateDOI(doi) {
			t.Errorf("ValidateDOI(%q) = false, want true", doi)
		}
	}

	invalid := []string{
		"",
		"10.5281",                   // no suffix
		"10.5281/",                  // empty suffix
		"11.5281/zenodo.1234",       // wrong directory indicator
		"10.123/zenodo.1234",        // registrant too short
		"10.5281/zen odo",           // blank inside suffix
		"doi:10.5281/zenodo.1234",   // scheme prefix not accepted
		"https://doi.org/10.1/x",    // URL form not accepted
	}
	for _, doi := range invalid {
		if ValidateDOI(doi) {
			t.Errorf("ValidateDOI(%q) = true, want false", doi)
		}
	}
}

func TestValidateRating(t *testing.T) {
	for rating := 1; rating <= 5; rating++ {
		if !ValidateRating(rating) {
			t.Errorf("ValidateRating(%d) = false, want true", rating)
		}
	}
	for _, rating := range []int{0, 6, -1, 100} {
		if ValidateRating(rating) {
			t.Errorf("ValidateRating(%d) = true, want false", rating)
		}
	}
}

func TestValidateEmail(t *testing.T) {
	if !ValidateEmail("author@university.edu") {
		t.Error("expected valid email to pass")
	}
	for _, email := range []string{"", "author", "author@", "@university.edu", "a b@x.org"} {
		if ValidateEmail(email) {
			t.Errorf("ValidateEmail(%q) = true, want false", email)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if ok, _ := ValidatePassword("longenough"); !ok {
		t.Error("expected 10-char password to pass")
	}
	if ok, msg := ValidatePassword("short"); ok || msg == "" {
		t.Error("expected short password to fail with a message")
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := SanitizeInput("  hello\x00world  "); got != "helloworld" {
		t.Errorf("SanitizeInput = %q", got)
	}
}
