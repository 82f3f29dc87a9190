// Package directory binds scraped competitor usernames to chat workspace members.
//
// Matching is best effort. A member's display name has its whitespace runs turned
// into wildcards and is searched case-insensitively inside the username, so
// "John Smith" matches "johnsmith99". Members are scanned in the order the chat
// directory returned them and the first hit wins, even when a later member would
// have been a closer match.
package directory
