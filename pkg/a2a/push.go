package a2a

import "fmt"

// TaskEvent names a task lifecycle occurrence a webhook subscriber may
// filter on.
type TaskEvent string

const (
	TaskEventStatusChanged TaskEvent = "StatusChanged"
	TaskEventCompleted     TaskEvent = "Completed"
	TaskEventFailed        TaskEvent = "Failed"
	TaskEventCancelled     TaskEvent = "Cancelled"
	TaskEventArtifactAdded TaskEvent = "ArtifactAdded"
)

// PushAuthKind discriminates the PushAuth tagged union.
type PushAuthKind string

const (
	PushAuthNone       PushAuthKind = ""
	PushAuthBearer     PushAuthKind = "bearer"
	PushAuthCustom     PushAuthKind = "customHeaders"
	PushAuthSelfSigned PushAuthKind = "selfSigned"
)

/*
PushAuth is a tagged variant over the ways the engine may authenticate an
outbound webhook POST: a caller-supplied static Bearer token, caller-supplied
CustomHeaders added verbatim, or engine-minted SelfSigned short-lived RS256
JWTs (see pkg/webhook.SelfSignedSigner) whose public key the receiver can
fetch from a JWKS endpoint.
*/
type PushAuth struct {
	Kind          PushAuthKind      `json:"kind"`
	BearerToken   string            `json:"bearerToken,omitempty"`
	CustomHeaders map[string]string `json:"customHeaders,omitempty"`
}

// PushNotificationConfig configures where and when the engine POSTs task
// lifecycle events for one task.
type PushNotificationConfig struct {
	URL    string      `json:"url"`
	Events []TaskEvent `json:"events"`
	Auth   *PushAuth   `json:"auth,omitempty"`
}

// Validate enforces the PushNotificationConfig invariants apart from SSRF
// validation, which is the caller's responsibility (pkg/security) since it
// requires re-checking on every delivery attempt, not just at Validate time.
func (cfg *PushNotificationConfig) Validate() error {
	if cfg.URL == "" {
		return fmt.Errorf("push notification config requires a url")
	}

	if len(cfg.Events) == 0 {
		return fmt.Errorf("push notification config requires a non-empty events set")
	}

	for _, e := range cfg.Events {
		switch e {
		case TaskEventStatusChanged, TaskEventCompleted, TaskEventFailed, TaskEventCancelled, TaskEventArtifactAdded:
		default:
			return fmt.Errorf("unknown task event %q", e)
		}
	}

	return nil
}

// TaskPushNotificationConfig pairs a task id with its stored config, the
// shape returned by tasks/pushNotificationConfig/list.
type TaskPushNotificationConfig struct {
	TaskID string                  `json:"taskId"`
	Config PushNotificationConfig `json:"pushNotificationConfig"`
}
