package message

// ConversationInfo is the per-conversation metadata fetched once per
// notification cycle. It carries the preferences that decide channel routing.
type ConversationInfo struct {
	ID                  string `json:"id"`
	IsGroup             bool   `json:"is_group"`
	Title               string `json:"title,omitempty"`
	IncludesEmail       bool   `json:"includes_email,omitempty"`
	SelfID              string `json:"self_id,omitempty"`
	RingtoneURI         string `json:"ringtone_uri,omitempty"`
	NotificationEnabled bool   `json:"notification_enabled"`
	VibrationEnabled    bool   `json:"vibration_enabled"`
	SubID               int    `json:"sub_id"`
	ParticipantCount    int    `json:"participant_count"`
	IconURI             string `json:"icon_uri,omitempty"`
}

// Participant identifies one member of a conversation.
type Participant struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	AvatarURI string `json:"avatar_uri,omitempty"`
	IsSelf    bool   `json:"is_self,omitempty"`
}

// DisplayName returns the participant's full name, falling back to the first
// name when no full name is known.
func (p Participant) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return p.FirstName
}
