package chat

import "testing"

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleUser, RoleModel, RoleSystem, RoleError} {
		if !ValidRole(role) {
			t.Errorf("ValidRole(%q) = false, want true", role)
		}
	}
	for _, role := range []string{"", "assistant", "narrator", "USER"} {
		if ValidRole(role) {
			t.Errorf("ValidRole(%q) = true, want false", role)
		}
	}
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr bool
	}{
		{
			name: "valid user message",
			msg:  Message{Role: RoleUser, Text: "I sneak past the guard.", Author: "Shiver"},
		},
		{
			name: "valid roll message",
			msg:  Message{Role: RoleUser, Text: "*Rolls D20... Result: 17* (Critical Success!)", IsRoll: true},
		},
		{
			name:    "invalid role",
			msg:     Message{Role: "narrator", Text: "hello"},
			wantErr: true,
		},
		{
			name:    "empty text",
			msg:     Message{Role: RoleModel, Text: "   "},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.msg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
