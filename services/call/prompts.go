package call

// Caller-facing texts. Everything the caller hears on an error path is one of these.
const (
	greetingOpen   = "Buongiorno, %s, come posso aiutarla?"
	greetingClosed = "Il centro è attualmente chiuso. Il prossimo orario di apertura è %s. " +
		"Posso aiutarla a prenotare un appuntamento per il primo giorno utile, " +
		"oppure se ha bisogno di un operatore posso trasferirla."

	repromptText     = "Non ho capito, può ripetere?"
	reasoningApology = "Mi dispiace, non sono riuscita a elaborare la richiesta. Può ripetere?"
	bookingWait      = "Sto ancora verificando la disponibilità, attenda un momento."
	bookedText       = "Perfetto, ho prenotato l'appuntamento per %s alle %s. Posso aiutarla in altro?"
	closingLine      = "Le auguro una buona giornata. Arrivederci."

	operatorBusy = "Mi dispiace, al momento nessun operatore è disponibile. La preghiamo di richiamare più tardi."
)
