package patterns

import "testing"

func TestAll_IncludesEveryFamily(t *testing.T) {
	all := All()
	seen := map[string]bool{}
	for _, d := range all {
		seen[d.Family] = true
	}
	for _, want := range []string{"PII", "SECRETS", "FINANCIAL", "INFRA"} {
		if !seen[want] {
			t.Errorf("All() missing family %s", want)
		}
	}
}

func TestLuhnValidate(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"4111 1111 1111 1111", true},  // well-known Visa test number
		{"4111 1111 1111 1112", false}, // checksum broken
		{"123", false},                 // too short
	}
	for _, c := range cases {
		if got := luhnValidate(c.in); got != c.want {
			t.Errorf("luhnValidate(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestValidateAadhaar_RejectsWrongLength(t *testing.T) {
	if validateAadhaar("1234 5678") {
		t.Error("expected short input to fail validation")
	}
}

func TestValidateAadhaar_RejectsLeadingZeroOrOne(t *testing.T) {
	if validateAadhaar("0234 5678 9012") {
		t.Error("Aadhaar numbers never start with 0")
	}
	if validateAadhaar("1234 5678 9012") {
		t.Error("Aadhaar numbers never start with 1")
	}
}

func TestEmailPattern_MatchesBasicAddress(t *testing.T) {
	def := findByType(t, PII, "EMAIL")
	if !def.Regex.MatchString("contact me at jane.doe@example.com please") {
		t.Error("expected EMAIL pattern to match a basic address")
	}
}

func TestOpenAIKeyPattern_Matches(t *testing.T) {
	def := findByType(t, Secrets, "OPENAI_KEY")
	if !def.Regex.MatchString("sk-abcdefghijklmnopqrstuvwxyz123456") {
		t.Error("expected OPENAI_KEY pattern to match")
	}
}

func TestCreditCardPattern_Matches(t *testing.T) {
	def := findByType(t, Financial, "CREDIT_CARD")
	if !def.Regex.MatchString("4111 1111 1111 1111") {
		t.Error("expected CREDIT_CARD pattern to match a Visa-format number")
	}
}

func TestIPAddressPattern_MatchesPrivateRange(t *testing.T) {
	def := findByType(t, Infra, "IP_ADDRESS")
	if !def.Regex.MatchString("internal host at 10.0.1.5 is unreachable") {
		t.Error("expected IP_ADDRESS pattern to match a private address")
	}
}

func TestPANPattern_Matches(t *testing.T) {
	def := findByType(t, PII, "PAN")
	if !def.Regex.MatchString("PAN: ABCDE1234F") {
		t.Error("expected PAN pattern to match a valid-format PAN")
	}
}

func TestOTPPattern_Matches(t *testing.T) {
	def := findByType(t, PII, "OTP")
	if !def.Regex.MatchString("your OTP is 482910") {
		t.Error("expected OTP pattern to match a keyword-adjacent code")
	}
}

func TestFullNamePattern_Matches(t *testing.T) {
	def := findByType(t, PII, "FULL_NAME")
	if !def.Regex.MatchString("customer: Jane Doe") {
		t.Error("expected FULL_NAME pattern to match a title-case name after a keyword")
	}
}

func TestAddressPattern_Matches(t *testing.T) {
	def := findByType(t, PII, "ADDRESS")
	if !def.Regex.MatchString("address: 221B Baker Street, London") {
		t.Error("expected ADDRESS pattern to match a keyword-adjacent payload")
	}
}

func findByType(t *testing.T, defs []Definition, typ string) Definition {
	t.Helper()
	for _, d := range defs {
		if d.Type == typ {
			return d
		}
	}
	t.Fatalf("pattern %s not found", typ)
	return Definition{}
}
