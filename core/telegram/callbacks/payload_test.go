package callbacks

import (
	"testing"

	tele "gopkg.in/telebot.v4"
)

func TestParseCallbackData(t *testing.T) {
	cases := []struct {
		name    string
		data    string
		unique  string
		payload string
	}{
		{"unique only", "\\fdash_home", "dash_home", ""},
		{"unique with payload", "\\fapprove|123456", "approve", "123456"},
		{"payload with separator", "\\finterest|a|b", "interest", "a|b"},
		{"no prefix", "approve|42", "approve", "42"},
		{"empty", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			unique, payload := ParseCallbackData(&tele.Callback{Data: tc.data})
			if unique != tc.unique {
				t.Errorf("unique: got %q, want %q", unique, tc.unique)
			}
			if payload != tc.payload {
				t.Errorf("payload: got %q, want %q", payload, tc.payload)
			}
		})
	}
}

func TestParseCallbackDataNil(t *testing.T) {
	unique, payload := ParseCallbackData(nil)
	if unique != "" || payload != "" {
		t.Errorf("expected empty results, got %q %q", unique, payload)
	}
}
