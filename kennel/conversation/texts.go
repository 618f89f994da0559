package conversation

const (
	promptName = "📝 *Submit an Inquiry*\n\nPlease provide your name:"

	promptPhone = "Thanks! Now please provide your phone number:"

	promptEmail = "Great! What's your email address?"

	promptMessage = "Perfect! Please tell us about your inquiry:\n" +
		"(What would you like to know? Which puppy interests you?)"

	textConfirmation = "✅ *Thank you for your inquiry!*\n\n" +
		"We've received your message and will contact you within 24 hours.\n\n" +
		"In the meantime, feel free to explore more about our puppies!"

	textSaveFailed = "Sorry, we could not save your inquiry right now. " +
		"Please send your message again in a moment."

	textSessionLost = "Sorry, your inquiry session has expired. " +
		"Please open the main menu and submit it again."

	textCancelled = "Inquiry cancelled. Type /start to return to the main menu."
)
