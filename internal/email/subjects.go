package email

const (
	subjectPurchaseReceiptFmt = "Aankoopbevestiging: lead %s"
	subjectTopUpConfirmation  = "Uw credits zijn bijgeschreven"
	subjectLowBalance         = "Uw creditsaldo is bijna op"
	subjectLeadMatchFmt       = "Nieuwe lead voor u: %s"
)
