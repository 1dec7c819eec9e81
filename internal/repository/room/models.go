package room

const (
	StatusWaiting = "waiting"
	StatusLive    = "live"
	StatusEnded   = "ended"
)

type Room struct {
	Title             string `redis:"title"`
	HostId            string `redis:"host_id"`
	StartAt           int64  `redis:"start_at"`
	Status            string `redis:"status"`
	SelectedContentId string `redis:"selected_content_id"`
	InviteCode        string `redis:"invite_code"`
	CreatedAt         int64  `redis:"created_at"`
}

type Playback struct {
	IsPlaying             bool    `redis:"is_playing"`
	PositionSeconds       float64 `redis:"position_seconds"`
	DurationSeconds       float64 `redis:"duration_seconds"`
	DriftThresholdSeconds float64 `redis:"drift_threshold_seconds"`
	// HostTimestamp is the unix millisecond instant of the last
	// authoritative write. Non-decreasing for the lifetime of the room.
	HostTimestamp int64 `redis:"host_timestamp"`
}

type Member struct {
	Username string `redis:"username"`
	IsHost   bool   `redis:"is_host"`
	IsOnline bool   `redis:"is_online"`
	JoinedAt int64  `redis:"joined_at"`
}

type Content struct {
	Title           string  `redis:"title"`
	Kind            string  `redis:"kind"`
	DurationSeconds float64 `redis:"duration_seconds"`
	AddedById       string  `redis:"added_by_id"`
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
