package cli

import (
	"testing"
)

func TestCurrentUser(t *testing.T) {
	tests := []struct {
		name    string
		flag    string
		wantErr bool
	}{
		{"empty", "", true},
		{"garbage", "abc", true},
		{"nil uuid", "00000000-0000-0000-0000-000000000000", true},
		{"valid", "5f0c7a7e-1c2d-4b8e-9a3f-0d1e2f3a4b5c", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			old, oldStored := userFlag, storedUser
			userFlag = tt.flag
			storedUser = func() string { return "" }
			defer func() { userFlag, storedUser = old, oldStored }()

			_, err := currentUser()
			if (err != nil) != tt.wantErr {
				t.Errorf("expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCurrentUser_FallsBackToLogin(t *testing.T) {
	old, oldStored := userFlag, storedUser
	defer func() { userFlag, storedUser = old, oldStored }()

	const saved = "5f0c7a7e-1c2d-4b8e-9a3f-0d1e2f3a4b5c"
	userFlag = ""
	storedUser = func() string { return saved }

	id, err := currentUser()
	if err != nil {
		t.Fatalf("currentUser() error: %v", err)
	}
	if id.String() != saved {
		t.Errorf("expected saved user, got %s", id)
	}

	userFlag = "6a1b2c3d-4e5f-4a6b-8c7d-9e0f1a2b3c4d"
	if id, _ := currentUser(); id.String() != userFlag {
		t.Errorf("flag must win over saved login, got %s", id)
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		pct  float64
		want string
	}{
		{0, "░░░░"},
		{50, "██░░"},
		{100, "████"},
		{150, "████"},
		{-10, "░░░░"},
	}
	for _, tt := range tests {
		if got := bar(tt.pct, 4); got != tt.want {
			t.Errorf("bar(%v) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"serve", "catalog", "track", "wellness", "social", "trading",
		"streak", "summary", "insights", "health", "login", "logout"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestTrack_RequiresUser(t *testing.T) {
	old, oldStored := userFlag, storedUser
	userFlag = ""
	storedUser = func() string { return "" }
	defer func() { userFlag, storedUser = old, oldStored }()

	if err := runTrack(trackCmd, []string{"habit"}); err == nil {
		t.Error("expected error without a user")
	}
}

func TestLogin_RejectsInvalidID(t *testing.T) {
	for _, arg := range []string{"abc", "00000000-0000-0000-0000-000000000000"} {
		if err := runLogin(loginCmd, []string{arg}); err == nil {
			t.Errorf("runLogin(%q): expected error", arg)
		}
	}
}
