// Package announce builds the Slack messages posted by the bot.
//
// Messages use Slack mrkdwn: *bold* for names and <@ID> for member mentions.
package announce
