// Package chat wraps the Slack Web API calls the bot needs.
//
// The client searches the configured channels for the last competition
// announcement, lists channel members with their real names for directory
// matching, and posts messages to every configured channel.
//
// Authentication requires a Slack token with search:read, channels:read,
// users:read and chat:write scopes.
package chat
