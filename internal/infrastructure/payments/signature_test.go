package payments

import (
	"strings"
	"testing"
)

func TestCanonicalString_SortsAndFilters(t *testing.T) {
	params := map[string]string{
		"money":        "16.60",
		"out_trade_no": "abc123",
		"pid":          "1001",
		"empty":        "",
		"sign":         "SHOULD_BE_EXCLUDED",
		"sign_type":    "MD5",
	}
	got := CanonicalString(params)
	want := "money=16.60&out_trade_no=abc123&pid=1001"
	if got != want {
		t.Fatalf("canonical string mismatch:\n got %q\nwant %q", got, want)
	}
}

func TestSign_RoundTrip(t *testing.T) {
	for _, algo := range []SignAlgo{SignAlgoMD5, SignAlgoHMACSHA256} {
		t.Run(string(algo), func(t *testing.T) {
			params := map[string]string{
				"out_trade_no": "order-1",
				"money":        "19.90",
				"name":         "VIP monthly pass",
			}
			params["sign"] = Sign(params, "s3cret", algo)

			if !Verify(params, "s3cret", algo) {
				t.Fatal("expected round-trip verification to pass")
			}
		})
	}
}

func TestSign_UppercaseHex(t *testing.T) {
	sig := Sign(map[string]string{"a": "1"}, "k", SignAlgoMD5)
	if sig != strings.ToUpper(sig) {
		t.Fatalf("expected uppercase hex, got %q", sig)
	}
	if len(sig) != 32 {
		t.Fatalf("expected 32 hex chars for md5, got %d", len(sig))
	}
}

func TestVerify_RejectsMutatedValue(t *testing.T) {
	params := map[string]string{
		"out_trade_no": "order-1",
		"money":        "16.60",
	}
	params["sign"] = Sign(params, "s3cret", SignAlgoMD5)

	params["money"] = "16.61"
	if Verify(params, "s3cret", SignAlgoMD5) {
		t.Fatal("expected verification to fail after value mutation")
	}
}

func TestVerify_FailsClosed(t *testing.T) {
	t.Run("empty secret", func(t *testing.T) {
		params := map[string]string{"a": "1"}
		params["sign"] = Sign(params, "", SignAlgoMD5)
		if Verify(params, "", SignAlgoMD5) {
			t.Fatal("empty secret must never verify")
		}
	})

	t.Run("missing sign field", func(t *testing.T) {
		if Verify(map[string]string{"a": "1"}, "s3cret", SignAlgoMD5) {
			t.Fatal("missing sign must never verify")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		params := map[string]string{"a": "1"}
		params["sign"] = Sign(params, "s3cret", SignAlgoHMACSHA256)
		if Verify(params, "other", SignAlgoHMACSHA256) {
			t.Fatal("wrong secret must never verify")
		}
	})
}

func TestVerify_CaseInsensitiveHex(t *testing.T) {
	params := map[string]string{"a": "1"}
	params["sign"] = strings.ToLower(Sign(params, "k", SignAlgoMD5))
	if !Verify(params, "k", SignAlgoMD5) {
		t.Fatal("lowercase hex signature from provider should still verify")
	}
}
