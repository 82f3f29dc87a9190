// Package workflow runs one tournament cycle end to end.
//
// A run looks up the previous competition announcement, decides whether it
// may announce at all, then scrapes the previous standings while a browser
// creates the next competition. The standings are matched against the chat
// directory, summarized, and posted together with the new invitation link.
//
// The collaborators are interfaces so the workflow can be exercised without a
// browser or a chat workspace.
package workflow
