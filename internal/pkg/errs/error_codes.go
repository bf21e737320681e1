/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect (e.g., syntax error).
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse multipart or URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRequestEntityTooLarge indicates that the request body size exceeded the server limit.
	ErrRequestEntityTooLarge = 1006

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Room and Message Business Logic Errors
const (
	// ErrRoomNotFound indicates that the targeted room does not exist.
	ErrRoomNotFound = 2101

	// ErrNotRoomParticipant indicates the user is not a participant of the targeted room.
	ErrNotRoomParticipant = 2102

	// ErrInviteTokenInvalid indicates a join-by-link attempt with a wrong or missing invite token.
	ErrInviteTokenInvalid = 2103

	// ErrRoomNameInvalid indicates an empty or oversized room name on creation.
	ErrRoomNameInvalid = 2104

	// ErrMessageContentInvalid indicates empty or oversized message content.
	ErrMessageContentInvalid = 2201
)

// 3xxx: User, Session, and Security Errors
const (
	// ErrUnauthorized indicates a missing or invalid session token.
	ErrUnauthorized = 3001

	// ErrInvalidUsername indicates the username violates the allowed format.
	ErrInvalidUsername = 3002

	// ErrInvalidPassword indicates the password violates the length constraints.
	ErrInvalidPassword = 3003

	// ErrUserAlreadyExists indicates the username is already taken.
	ErrUserAlreadyExists = 3004

	// ErrInvalidCredentials indicates a failed username/password verification.
	ErrInvalidCredentials = 3005

	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = 3006

	// ErrOldPasswordInvalid indicates a password change with a wrong current password.
	ErrOldPasswordInvalid = 3007

	// ErrAvatarInvalid indicates a missing or unsupported avatar file.
	ErrAvatarInvalid = 3008
)

// 4xxx: Friend Workflow Errors
const (
	// ErrSelfFriendRequest indicates an attempt to friend-request oneself.
	ErrSelfFriendRequest = 4001

	// ErrFriendRequestExists indicates a duplicate request to the same user.
	ErrFriendRequestExists = 4002

	// ErrFriendRequestNotFound indicates the request id is unknown or not addressed to the caller.
	ErrFriendRequestNotFound = 4003

	// ErrNotFriends indicates a DM room was requested with a non-friend.
	ErrNotFriends = 4004
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrFileStorageFailed indicates the object storage backend rejected an operation.
	ErrFileStorageFailed = 5001
)
