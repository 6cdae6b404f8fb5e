package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityKind enumerates the engagement actions tracked per course. The
// get_* kinds are reciprocal counterparts credited to the other party of an
// interaction (e.g. the asset owner when someone comments on their asset).
type ActivityKind string

const (
	KindAssetAdd             ActivityKind = "asset_add"
	KindAssetLike            ActivityKind = "asset_like"
	KindAssetView            ActivityKind = "asset_view"
	KindAssetComment         ActivityKind = "asset_comment"
	KindAssetCommentReply    ActivityKind = "asset_comment_reply"
	KindDiscussionTopic      ActivityKind = "discussion_topic"
	KindDiscussionEntry      ActivityKind = "discussion_entry"
	KindDiscussionReply      ActivityKind = "discussion_entry_reply"
	KindWhiteboardAddAsset   ActivityKind = "whiteboard_add_asset"
	KindWhiteboardExport     ActivityKind = "whiteboard_export"
	KindWhiteboardRemix      ActivityKind = "whiteboard_remix"
	KindGetAssetLike         ActivityKind = "get_asset_like"
	KindGetAssetView         ActivityKind = "get_asset_view"
	KindGetAssetComment      ActivityKind = "get_asset_comment"
	KindGetAssetCommentReply ActivityKind = "get_asset_comment_reply"
	KindGetDiscussionReply   ActivityKind = "get_discussion_entry_reply"
	KindGetWhiteboardAddAsset ActivityKind = "get_whiteboard_add_asset"
	KindGetWhiteboardRemix   ActivityKind = "get_whiteboard_remix"
)

// reciprocalKinds is the fixed mapping from a primary activity kind to the
// counterpart generated for the other party of the interaction.
var reciprocalKinds = map[ActivityKind]ActivityKind{
	KindAssetLike:          KindGetAssetLike,
	KindAssetView:          KindGetAssetView,
	KindAssetComment:       KindGetAssetComment,
	KindAssetCommentReply:  KindGetAssetCommentReply,
	KindDiscussionReply:    KindGetDiscussionReply,
	KindWhiteboardAddAsset: KindGetWhiteboardAddAsset,
	KindWhiteboardRemix:    KindGetWhiteboardRemix,
}

// ReciprocalKind returns the generated counterpart for a primary kind, if the
// kind has one.
func ReciprocalKind(kind ActivityKind) (ActivityKind, bool) {
	reciprocal, ok := reciprocalKinds[kind]
	return reciprocal, ok
}

// AllKinds lists every known activity kind, primary kinds first.
func AllKinds() []ActivityKind {
	return []ActivityKind{
		KindAssetAdd, KindAssetLike, KindAssetView, KindAssetComment,
		KindAssetCommentReply, KindDiscussionTopic, KindDiscussionEntry,
		KindDiscussionReply, KindWhiteboardAddAsset, KindWhiteboardExport,
		KindWhiteboardRemix,
		KindGetAssetLike, KindGetAssetView, KindGetAssetComment,
		KindGetAssetCommentReply, KindGetDiscussionReply,
		KindGetWhiteboardAddAsset, KindGetWhiteboardRemix,
	}
}

// ObjectType discriminates the polymorphic object an activity refers to.
type ObjectType string

const (
	ObjectAsset            ObjectType = "asset"
	ObjectComment          ObjectType = "comment"
	ObjectWhiteboard       ObjectType = "whiteboard"
	ObjectCanvasDiscussion ObjectType = "canvas_discussion"
	ObjectCanvasSubmission ObjectType = "canvas_submission"
)

// Activity is one append-only entry in the engagement log. UserID is the
// subject credited for the activity; ActorID, when present, is the other
// party of the interaction. ReciprocalID cross-links the two halves of a
// primary/counterpart pair, which are always inserted in one transaction.
type Activity struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	Kind         ActivityKind      `gorm:"column:kind;size:48;not null;index" json:"kind"`
	CourseID     uint              `gorm:"not null;index:idx_activities_course_user" json:"course_id"`
	UserID       uint              `gorm:"not null;index:idx_activities_course_user" json:"user_id"`
	ObjectType   ObjectType        `gorm:"size:32;not null;index:idx_activities_object" json:"object_type"`
	ObjectID     *uint             `gorm:"index:idx_activities_object" json:"object_id"`
	AssetID      *uint             `gorm:"index" json:"asset_id"`
	ActorID      *uint             `json:"actor_id"`
	ReciprocalID *uint             `json:"reciprocal_id"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}

// TableName keeps the table name shared with the reporting queries.
func (Activity) TableName() string {
	return "activities"
}
