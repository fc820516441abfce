package notification

import "fmt"

// OnboardingCode is the email carrying a resident's one-time sign-in code.
func OnboardingCode(to, fullName, residenceName, code string) Message {
	return Message{
		To:      to,
		Subject: "Your Residora verification code",
		TextBody: fmt.Sprintf(
			"Hello %s,\n\nYour verification code for %s is: %s\n\nIt expires in 15 minutes.\n",
			fullName, residenceName, code),
		HTMLBody: fmt.Sprintf(
			"<p>Hello %s,</p><p>Your verification code for <strong>%s</strong> is: <strong>%s</strong></p><p>It expires in 15 minutes.</p>",
			fullName, residenceName, code),
	}
}

// ApplicantConfirmation acknowledges a registration request to the applicant.
func ApplicantConfirmation(to, fullName, residenceName string) Message {
	return Message{
		To:      to,
		Subject: "We received your registration request",
		TextBody: fmt.Sprintf(
			"Hello %s,\n\nYour registration request for %s has been received and is awaiting review by the building manager.\n",
			fullName, residenceName),
		HTMLBody: fmt.Sprintf(
			"<p>Hello %s,</p><p>Your registration request for <strong>%s</strong> has been received and is awaiting review by the building manager.</p>",
			fullName, residenceName),
	}
}

// SyndicAlert notifies the residence manager of a new registration request.
func SyndicAlert(to, applicantName, apartment, residenceName string) Message {
	return Message{
		To:      to,
		Subject: fmt.Sprintf("New registration request for %s", residenceName),
		TextBody: fmt.Sprintf(
			"%s requested to register for apartment %s in %s. Review the request in your dashboard.\n",
			applicantName, apartment, residenceName),
		HTMLBody: fmt.Sprintf(
			"<p><strong>%s</strong> requested to register for apartment %s in <strong>%s</strong>.</p><p>Review the request in your dashboard.</p>",
			applicantName, apartment, residenceName),
	}
}
