package dynamo

// DynamoDB attribute names used in update expressions across all repos.
// Using constants prevents silent runtime bugs caused by key typos.
const (
	fieldEnable           = "enable"
	fieldRead             = "read"
	fieldStatus           = "status"
	fieldJustified        = "justified"
	fieldNotifiedParent   = "notified_parent"
	fieldTeacherID        = "teacher_id"
	fieldTeacherName      = "teacher_name"
	fieldUpdatedAt        = "updated_at"
	fieldRefreshToken     = "refresh_token"
	fieldRefreshExpiresAt = "refresh_expires_at"
)
