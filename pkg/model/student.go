package model

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"

	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Student is the identity projection the reservation core needs from the
// student directory: who is asking, what they may do, and whether the
// account has been approved by an administrator.
type Student struct {
	ID     string `json:"id"`
	Role   string `json:"role"`
	Status string `json:"status"`
}

func (s *Student) IsAdmin() bool {
	return s.Role == RoleAdmin
}

func (s *Student) IsApproved() bool {
	return s.Status == StatusApproved
}
