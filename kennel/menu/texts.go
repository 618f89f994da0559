package menu

const (
	textWelcome = "🐾 *Welcome to Our Cane Corso Kennel!* 🐾\n\n" +
		"We specialize in breeding premium Cane Corso puppies with " +
		"excellent temperament and champion bloodlines.\n\n" +
		"How can we help you today?"

	textEntry = "Type /start to open the main menu."

	textMain = "🐾 *Main Menu* 🐾\n\nHow can we help you?"

	textCatalogHeader = "*🐕 Available Puppies (%d)*\n\nSelect a puppy to view details:"

	textCatalogEmpty = "Currently no puppies available. " +
		"Please check back soon or contact us for upcoming litters!"

	textItemNotFound = "Puppy not found!"

	textItemDetail = "*🐕 %s*\n\n" +
		"*Gender:* %s\n" +
		"*Age:* %s\n" +
		"*Color:* %s\n" +
		"*Price:* %s\n" +
		"*Status:* %s\n\n" +
		"*Description:*\n%s\n"

	statusAvailable = "✅ Available"
	statusSold      = "❌ Sold"

	textAbout = "*ℹ️ About Our Kennel*\n\n" +
		"%s\n\n" +
		"*What's Included:*\n" +
		"✅ Health Certificate\n" +
		"✅ First Vaccinations\n" +
		"✅ Deworming\n" +
		"✅ Health Guarantee\n" +
		"✅ Microchip\n" +
		"✅ Puppy Starter Pack\n"

	textPricing = "*💰 Pricing Information*\n\n" +
		"*Standard Puppies:* $2,500 - $3,000\n" +
		"*Premium Bloodline:* $3,500 - $4,500\n" +
		"*Champion Bloodline:* $5,000+\n\n" +
		"*Payment Options:*\n" +
		"• Full payment\n" +
		"• Deposit to reserve ($500)\n" +
		"• Payment plans available\n\n" +
		"*What Affects Price:*\n" +
		"• Bloodline\n" +
		"• Color\n" +
		"• Gender\n" +
		"• Show quality vs. Pet quality\n\n" +
		"Contact us for specific pricing on available puppies!"

	textContact = "*📞 Contact Information*\n\n" +
		"*Phone:* %s\n" +
		"*Email:* %s\n" +
		"*Location:* %s\n\n" +
		"We respond to inquiries within 24 hours!\n\n" +
		"You can also submit an inquiry through this bot:"

	textFAQ = "*❓ Frequently Asked Questions*\n\n" +
		"*Q: What age can I take my puppy home?*\n" +
		"A: Puppies are ready at 8-10 weeks old.\n\n" +
		"*Q: Are the puppies vaccinated?*\n" +
		"A: Yes, first shots and deworming completed.\n\n" +
		"*Q: Do you offer shipping?*\n" +
		"A: Yes, we can arrange safe transport.\n\n" +
		"*Q: What is your health guarantee?*\n" +
		"A: 2-year health guarantee against genetic defects.\n\n" +
		"*Q: Can I visit the puppies?*\n" +
		"A: Yes! We encourage visits by appointment.\n\n" +
		"*Q: Do you require a deposit?*\n" +
		"A: Yes, $500 deposit to reserve a puppy.\n"
)

// Button captions.
const (
	CaptionCatalog     = "🐕 View Available Puppies"
	CaptionAbout       = "ℹ️ About Our Breeding"
	CaptionPricing     = "💰 Pricing Information"
	CaptionContact     = "📞 Contact Us"
	CaptionFAQ         = "❓ FAQ"
	CaptionBackToMenu  = "⬅️ Back to Menu"
	CaptionHome        = "🏠 Main Menu"
	CaptionHomeDone    = "🏠 Back to Menu"
	CaptionBackToList  = "⬅️ Back to Puppies"
	CaptionInquireItem = "📝 Inquire About This Puppy"
	CaptionSubmit      = "📝 Submit Inquiry"
	CaptionCancel      = "❌ Cancel"
)
