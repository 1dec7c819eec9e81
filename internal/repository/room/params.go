package room

type SetRoomParams struct {
	Title             string
	HostId            string
	StartAt           int64
	Status            string
	SelectedContentId string
	InviteCode        string
	CreatedAt         int64
	RoomId            string
}

type SetPlaybackParams struct {
	IsPlaying             bool
	PositionSeconds       float64
	DurationSeconds       float64
	DriftThresholdSeconds float64
	HostTimestamp         int64
	RoomId                string
}

type UpdatePlaybackStateParams struct {
	IsPlaying       bool
	PositionSeconds float64
	HostTimestamp   int64
	RoomId          string
}

type SetMemberParams struct {
	Username string
	IsHost   bool
	IsOnline bool
	JoinedAt int64
	UserId   string
	RoomId   string
}

type SetContentParams struct {
	Title           string
	Kind            string
	DurationSeconds float64
	AddedById       string
	ContentId       string
	RoomId          string
}

type SetVoteParams struct {
	UserId    string
	ContentId string
	RoomId    string
}

type AddMessageParams struct {
	Message Message
	Limit   int64
	RoomId  string
}

type AddExpenseParams struct {
	Expense Expense
	RoomId  string
}
