/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:         {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrUnsupportedMediaType:  {Code: ErrUnsupportedMediaType, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrInvalidJSONFormat:     {Code: ErrInvalidJSONFormat, Message: "Unsupported request format.", Status: http.StatusBadRequest},
	ErrExtraContentInBody:    {Code: ErrExtraContentInBody, Message: "Request contains unexpected data.", Status: http.StatusBadRequest},
	ErrFormParseFailed:       {Code: ErrFormParseFailed, Message: "Failed to process uploaded data.", Status: http.StatusBadRequest},
	ErrRequestEntityTooLarge: {Code: ErrRequestEntityTooLarge, Message: "Request size is too large.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:     {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room and Message Business Logic Errors
	ErrRoomNotFound:          {Code: ErrRoomNotFound, Message: "Room not found.", Status: http.StatusNotFound},
	ErrNotRoomParticipant:    {Code: ErrNotRoomParticipant, Message: "You are not a participant of this room.", Status: http.StatusForbidden},
	ErrInviteTokenInvalid:    {Code: ErrInviteTokenInvalid, Message: "Invalid invite link.", Status: http.StatusForbidden},
	ErrRoomNameInvalid:       {Code: ErrRoomNameInvalid, Message: "Invalid room name.", Status: http.StatusBadRequest},
	ErrMessageContentInvalid: {Code: ErrMessageContentInvalid, Message: "Invalid message content.", Status: http.StatusBadRequest},

	// 3xxx: User, Session, and Security Errors
	ErrUnauthorized:       {Code: ErrUnauthorized, Message: "Please sign in to continue.", Status: http.StatusUnauthorized},
	ErrInvalidUsername:    {Code: ErrInvalidUsername, Message: "Username may contain letters and digits only.", Status: http.StatusBadRequest},
	ErrInvalidPassword:    {Code: ErrInvalidPassword, Message: "Invalid password.", Status: http.StatusBadRequest},
	ErrUserAlreadyExists:  {Code: ErrUserAlreadyExists, Message: "Username is already taken.", Status: http.StatusConflict},
	ErrInvalidCredentials: {Code: ErrInvalidCredentials, Message: "Incorrect username or password.", Status: http.StatusUnauthorized},
	ErrUserNotFound:       {Code: ErrUserNotFound, Message: "Account not found.", Status: http.StatusNotFound},
	ErrOldPasswordInvalid: {Code: ErrOldPasswordInvalid, Message: "Current password is incorrect.", Status: http.StatusBadRequest},
	ErrAvatarInvalid:      {Code: ErrAvatarInvalid, Message: "Avatar must be a JPEG, PNG, WebP or GIF image.", Status: http.StatusBadRequest},

	// 4xxx: Friend Workflow Errors
	ErrSelfFriendRequest:     {Code: ErrSelfFriendRequest, Message: "You cannot send a friend request to yourself.", Status: http.StatusBadRequest},
	ErrFriendRequestExists:   {Code: ErrFriendRequestExists, Message: "Friend request already sent.", Status: http.StatusBadRequest},
	ErrFriendRequestNotFound: {Code: ErrFriendRequestNotFound, Message: "Friend request not found.", Status: http.StatusNotFound},
	ErrNotFriends:            {Code: ErrNotFriends, Message: "Direct messages are limited to friends.", Status: http.StatusForbidden},

	// 5xxx: Internal System Errors
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrFileStorageFailed: {Code: ErrFileStorageFailed, Message: "File upload failed. Please try again.", Status: http.StatusInternalServerError},
}
