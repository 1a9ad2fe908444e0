package jobs

// Task type discriminators. The values are the variant names the
// publishing application puts on the wire.
const (
	TypeSendEmail               = "SendEmail"
	TypeCleanupExpiredToken     = "CleanupExpiredToken"
	TypeProcessUserRegistration = "ProcessUserRegistration"
	TypeProcessAvatarUpload     = "ProcessAvatarUpload"
)

// Payload is the tagged task variant carried in an envelope. Type
// selects the variant; only the fields belonging to that variant are
// populated, the rest stay at their zero value and are omitted on the
// wire.
type Payload struct {
	Type string `json:"type"`

	// SendEmail
	To       string `json:"to,omitempty"`
	Subject  string `json:"subject,omitempty"`
	TextBody string `json:"text_body,omitempty"`
	HTMLBody string `json:"html_body,omitempty"`

	// ProcessUserRegistration, ProcessAvatarUpload
	UserID int `json:"user_id,omitempty"`

	// ProcessAvatarUpload
	TaskID   string `json:"task_id,omitempty"`
	FileName string `json:"file_name,omitempty"`
}

// SendEmail builds a SendEmail payload.
func SendEmail(to, subject, textBody, htmlBody string) Payload {
	return Payload{
		Type:     TypeSendEmail,
		To:       to,
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
	}
}

// CleanupExpiredToken builds a CleanupExpiredToken payload.
func CleanupExpiredToken() Payload {
	return Payload{Type: TypeCleanupExpiredToken}
}

// ProcessUserRegistration builds a ProcessUserRegistration payload.
func ProcessUserRegistration(userID int) Payload {
	return Payload{Type: TypeProcessUserRegistration, UserID: userID}
}

// ProcessAvatarUpload builds a ProcessAvatarUpload payload.
func ProcessAvatarUpload(taskID string, userID int, fileName string) Payload {
	return Payload{
		Type:     TypeProcessAvatarUpload,
		TaskID:   taskID,
		UserID:   userID,
		FileName: fileName,
	}
}
