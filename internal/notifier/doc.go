// Package notifier defines how announcements leave the bot.
//
// Production runs post through the Slack chat client. Every other run uses the
// dry-run notifier, which prints what would have been posted.
package notifier
