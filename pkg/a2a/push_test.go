package a2a

import "testing"

func TestPushNotificationConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     PushNotificationConfig
		wantErr bool
	}{
		{
			name:    "valid",
			cfg:     PushNotificationConfig{URL: "https://example.com/hook", Events: []TaskEvent{TaskEventCompleted}},
			wantErr: false,
		},
		{
			name:    "missing url",
			cfg:     PushNotificationConfig{Events: []TaskEvent{TaskEventCompleted}},
			wantErr: true,
		},
		{
			name:    "no events",
			cfg:     PushNotificationConfig{URL: "https://example.com/hook"},
			wantErr: true,
		},
		{
			name:    "unknown event",
			cfg:     PushNotificationConfig{URL: "https://example.com/hook", Events: []TaskEvent{"bogus"}},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
