package form

import (
	"testing"

	"configdesk/internal/tree"
)

func TestClassifier_Classify(t *testing.T) {
	c := NewClassifier()
	tests := []struct {
		path string
		node tree.Node
		want Class
	}{
		{"enabled", tree.Bool(true), Class{Kind: KindBoolean}},
		{"api_key", tree.Bool(false), Class{Kind: KindBoolean}},
		{"name", tree.Str("bot"), Class{Kind: KindText}},
		{"rsi_period", tree.Num(14), Class{Kind: KindText}},
		{"api_key", tree.Str("abc123"), Class{Kind: KindSensitive, Sensitive: true}},
		{"database.PASSWORD", tree.Str("pw"), Class{Kind: KindSensitive, Sensitive: true}},
		{"telegram.chat_id", tree.Num(12345), Class{Kind: KindSensitive, Sensitive: true}},
		{"notes", tree.Str("a\nb"), Class{Kind: KindMultiline}},
		{"privateKey", tree.Str("-----BEGIN-----\nx\n-----END-----"), Class{Kind: KindMultiline, Sensitive: true}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := c.Classify(tree.MustParsePath(tt.path), tt.node)
			if !ok {
				t.Fatalf("Classify(%s) reported a non-leaf", tt.path)
			}
			if got != tt.want {
				t.Errorf("Classify(%s) = %+v, want %+v", tt.path, got, tt.want)
			}
		})
	}

	if _, ok := c.Classify(tree.Path{"coins"}, tree.NewMapping()); ok {
		t.Error("mapping classified as a leaf")
	}
}

func TestClassifier_CustomDenylist(t *testing.T) {
	c := NewClassifier(" Passphrase ", "")
	if !c.IsSensitive("wallet_passphrase") {
		t.Error("wallet_passphrase should be sensitive")
	}
	if c.IsSensitive("api_key") {
		t.Error("api_key should not match a custom denylist without key")
	}
}
