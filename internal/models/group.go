package models

import "time"

// Visibility controls how non-members can become members of a group.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// Valid reports whether v is a known visibility.
func (v Visibility) Valid() bool {
	return v == VisibilityPublic || v == VisibilityPrivate
}

// Role is a member's role within a group.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleMember Role = "member"
)

// JoinRequestStatus is the state of a request to join a private group.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// Group represents a movie group
type Group struct {
	ID          int64      `json:"id" db:"id"`
	OwnerID     int64      `json:"ownerId" db:"owner_id"`
	Name        string     `json:"name" db:"name"`
	Description *string    `json:"description" db:"description"`
	Visibility  Visibility `json:"visibility" db:"visibility"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`

	// OwnerName is joined from users and not stored on the row.
	OwnerName *string `json:"ownerName" db:"-"`
}

// GroupMember represents a user's membership in a group.
// The row's existence is the membership.
type GroupMember struct {
	GroupID  int64     `json:"groupId" db:"group_id"`
	UserID   int64     `json:"userId" db:"user_id"`
	Role     Role      `json:"role" db:"role"`
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}

// JoinRequest is a user's request to join a private group.
// At most one exists per (group, user).
type JoinRequest struct {
	ID           int64             `json:"id" db:"id"`
	GroupID      int64             `json:"groupId" db:"group_id"`
	UserID       int64             `json:"userId" db:"user_id"`
	Status       JoinRequestStatus `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"createdAt" db:"created_at"`
	ResolvedAt   *time.Time        `json:"resolvedAt,omitempty" db:"resolved_at"`
	ResolvedByID *int64            `json:"resolvedById,omitempty" db:"resolved_by_id"`
}

// GroupInput carries the editable fields of a group.
type GroupInput struct {
	Name        string
	Description *string
	Visibility  Visibility
}

// GroupListItem is a group annotated from the viewer's perspective.
type GroupListItem struct {
	ID                int64              `json:"id"`
	Name              string             `json:"name"`
	Description       *string            `json:"description"`
	Visibility        Visibility         `json:"visibility"`
	OwnerID           int64              `json:"-"`
	OwnerName         *string            `json:"ownerName"`
	IsMember          bool               `json:"isMember"`
	IsOwner           bool               `json:"isOwner"`
	JoinRequestStatus *JoinRequestStatus `json:"joinRequestStatus"`
}

// GroupsOverview splits the annotated group list into the viewer's groups and all groups.
type GroupsOverview struct {
	MyGroups  []GroupListItem `json:"myGroups"`
	AllGroups []GroupListItem `json:"allGroups"`
}

// GroupViewer describes the viewer's relation to a group.
type GroupViewer struct {
	UserID            int64              `json:"userId"`
	IsMember          bool               `json:"isMember"`
	IsOwner           bool               `json:"isOwner"`
	JoinRequestStatus *JoinRequestStatus `json:"joinRequestStatus"`
}

// JoinRequestSummary is a pending request as shown to the group owner.
type JoinRequestSummary struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	UserName  *string   `json:"userName"`
	UserEmail *string   `json:"userEmail"`
	CreatedAt time.Time `json:"createdAt"`
}

// MemberSummary is a member as shown to the group owner.
type MemberSummary struct {
	UserID    int64     `json:"userId"`
	UserName  *string   `json:"userName"`
	UserEmail *string   `json:"userEmail"`
	UserImage *string   `json:"userImage"`
	Role      Role      `json:"role"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// GroupDetail is the viewer-gated detail view of a group.
// Favorites and MovieOptions are only filled for members;
// PendingRequests and Members only for the owner.
type GroupDetail struct {
	Group           Group                `json:"group"`
	Me              GroupViewer          `json:"me"`
	CanSeeContent   bool                 `json:"canSeeContent"`
	MovieOptions    []MovieOption        `json:"movieOptions"`
	Favorites       []FavoriteSummary    `json:"favorites"`
	PendingRequests []JoinRequestSummary `json:"pendingRequests"`
	Members         []MemberSummary      `json:"members"`
}

// LeaveResult reports what leaving a group did.
type LeaveResult string

const (
	// LeaveLeft means the caller's membership was removed.
	LeaveLeft LeaveResult = "left"
	// LeaveDeleted means the owner left and the group was deleted.
	LeaveDeleted LeaveResult = "deleted"
)
