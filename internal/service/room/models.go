package room

type Member struct {
	UserId   string `json:"user_id"`
	Username string `json:"username"`
	IsHost   bool   `json:"is_host"`
	IsOnline bool   `json:"is_online"`
}

// Playback is the broadcast snapshot of a room's authoritative playback
// state. HostTimestamp is unix milliseconds.
type Playback struct {
	RoomId                string  `json:"room_id"`
	IsPlaying             bool    `json:"is_playing"`
	PositionSeconds       float64 `json:"position_seconds"`
	DurationSeconds       float64 `json:"duration_seconds"`
	DriftThresholdSeconds float64 `json:"drift_threshold_seconds"`
	HostTimestamp         int64   `json:"host_timestamp"`
}

type Content struct {
	ContentId       string  `json:"content_id"`
	Title           string  `json:"title"`
	Kind            string  `json:"kind"`
	DurationSeconds float64 `json:"duration_seconds"`
	AddedById       string  `json:"added_by_id"`
	Votes           int     `json:"votes"`
}

type Room struct {
	RoomId            string    `json:"room_id"`
	Title             string    `json:"title"`
	HostId            string    `json:"host_id"`
	StartAt           int64     `json:"start_at"`
	Status            string    `json:"status"`
	SelectedContentId string    `json:"selected_content_id,omitempty"`
	InviteCode        string    `json:"invite_code"`
	Members           []Member  `json:"members"`
	Contents          []Content `json:"contents"`
	Playback          Playback  `json:"playback"`
}

type Message struct {
	Id        string `json:"id"`
	UserId    string `json:"user_id"`
	Text      string `json:"text"`
	Kind      string `json:"kind"`
	CreatedAt int64  `json:"created_at"`
}

type Expense struct {
	Id        string  `json:"id"`
	UserId    string  `json:"user_id"`
	Amount    float64 `json:"amount"`
	Note      string  `json:"note"`
	Weight    int     `json:"weight"`
	CreatedAt int64   `json:"created_at"`
}

type Balance struct {
	UserId  string  `json:"user_id"`
	Paid    float64 `json:"paid"`
	Owed    float64 `json:"owed"`
	Balance float64 `json:"balance"`
}

// Output is the envelope for every server to client websocket message.
type Output struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
