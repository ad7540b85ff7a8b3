package ai

import "fmt"

const classifyPrompt = `You are part of Ripple, a personal networking tracker that helps a user
keep track of professional and networking email threads.

WHAT COUNTS AS NETWORKING
-------------------------
An email is networking when the sender's intent is to build, start, or
maintain a professional relationship. Examples:
- Asking for career advice, guidance, or mentorship.
- Requesting an informational interview or a coffee chat.
- Reaching out to learn about someone's career path or experience.
- Asking about job or internship opportunities or referrals
  (an inquiry, not a formal application submission).
- Thank-you notes after a networking conversation, event, or introduction.
- Reconnecting with a former colleague, professor, or acquaintance for
  professional reasons.
- Introducing oneself professionally without a sales motive.
- Alumni outreach.
- Conversations with professors, alumni, or professionals about research,
  graduate school, recommendations, collaborations, or long-term career plans.

WHAT IS NOT NETWORKING
----------------------
- Sales, marketing, and promotional email (deals, discount codes, newsletters).
- Financial promotions (loan offers, refinancing, credit cards).
- Customer service or support requests.
- Personal or social email unrelated to careers.
- Spam.
- Coursework logistics (homework, problem sets, exams, class admin).
- Transactional email (receipts, confirmations, password resets, alerts).

EDGE CASES
----------
- Bulk recruiting or program announcements, job lists, career center blasts:
  NOT networking.
- Personalized one-to-one recruiter outreach that references the user's
  background and invites a conversation: networking.
- Application portals and status updates, automated interview scheduling
  links: NOT networking.
- Automated event invitations or reminders (career fairs, info sessions,
  webinars): NOT networking unless it is a personal invitation from a
  specific person.
- Professors or supervisors: coursework and admin are NOT networking;
  careers, grad school, research, recommendations, and long-term advice are.
- Internal work email: routine updates, assignments, and bug reports are NOT
  networking; one-to-one mentorship, growth, or opportunity conversations are.
- Friends: purely social chat is NOT networking; asking for career advice,
  referrals, intros, or opportunities is.

When unsure, classify as networking if the main intent is to build or deepen
a professional relationship or explore professional or academic opportunities,
and as not networking if it is mostly transactional, automated, marketing, or
purely social.

YOUR TASK
---------
1. Decide whether THIS email is networking.
2. Only if it is networking, summarize its main purpose, any concrete asks or
   offers, and any next steps, deadlines, or dates. Stay at the big picture.

SUMMARY STYLE
- One short phrase, at most about 15 to 20 words, starting with a past-tense
  action verb.
- Punchy and easy to skim.
- Only the new content of this email, never quoted earlier messages.

OUTPUT FORMAT
-------------
Return only a single JSON object with exactly this schema:

{
  "networking": true or false,
  "summary": "one short phrase when networking is true, otherwise an empty string"
}

EMAIL
-----
Subject: %s

Body:
%s`

const summaryPrompt = `You are part of Ripple, a personal networking tracker.

Write a very short summary of the email below covering its main purpose or
update, any explicit asks or offers, and any next steps, deadlines, or dates.
Stay at the big picture.

STYLE
- One short phrase, at most about 15 to 20 words, starting with a past-tense
  action verb.
- Punchy and easy to skim.
- Only the new content of this email, never quoted earlier messages.

Return only a single JSON object with exactly this schema:

{
  "summary": "concise networking-oriented summary"
}

EMAIL
-----
Subject: %s

Body:
%s`

const meetingPrompt = `You are reviewing a professional networking email thread for Ripple.

Your only job is to decide whether a meeting or call has been definitively
scheduled and agreed on.

A meeting counts as scheduled only when BOTH hold:
- a specific date or time is mentioned, and
- the other person clearly accepts or confirms it.

Confirmations look like: "Yes, that works.", "Confirmed.", "See you then.",
"Sounds good, let's plan on it."

If a time is proposed but not clearly accepted, the answer is false.

Return only this JSON:

{
  "meeting_scheduled": true or false
}

THREAD TRANSCRIPT:
------------------------------------
%s
------------------------------------`

func buildClassifyPrompt(subject, body string) string {
	return fmt.Sprintf(classifyPrompt, orPlaceholder(subject, "(no subject)"), orPlaceholder(body, "(no body)"))
}

func buildSummaryPrompt(subject, body string) string {
	return fmt.Sprintf(summaryPrompt, orPlaceholder(subject, "(no subject)"), orPlaceholder(body, "(no body)"))
}

func buildMeetingPrompt(transcript string) string {
	return fmt.Sprintf(meetingPrompt, transcript)
}

func orPlaceholder(s, placeholder string) string {
	if s == "" {
		return placeholder
	}
	return s
}
