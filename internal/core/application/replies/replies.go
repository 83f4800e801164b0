// Package replies is the French message catalogue shared by the dialogue and
// the workflow coordinators, plus the identifiers of interactive buttons.
package replies

import (
	"fmt"
	"strings"

	"pharmadelivery/internal/core/domain/model/catalog"
	"pharmadelivery/internal/core/domain/model/conversation"
	"pharmadelivery/internal/core/domain/model/kernel"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.French)

// Money formats an XOF amount, e.g. "4 000 FCFA".
func Money(amount int64) string {
	return printer.Sprintf("%d FCFA", amount)
}

// ShortID is the first block of a UUID, used as a human order reference.
func ShortID(id kernel.UUID) string {
	s := id.String()
	if i := strings.IndexByte(s, '-'); i > 0 {
		return strings.ToUpper(s[:i])
	}
	return s
}

const (
	GenericError = "Désolé, un problème technique nous empêche de répondre. Réessayez dans quelques instants."

	Menu = "Que souhaitez-vous faire ?"

	AskMedicineName = "Quel médicament recherchez-vous ? Envoyez son nom, par exemple « paracétamol »."

	InvalidSelection = "Je n'ai pas compris votre choix. Pour commander, envoyez « COMMANDER <numéro> <quantité> »."

	EmptyCart = "Votre panier est vide. Envoyez le nom d'un médicament pour commencer."

	CartCancelled = "Votre panier a été vidé. Tapez « menu » pour recommencer."

	AskDeliveryLocation = "Partagez votre position (📎 > Localisation) pour la livraison."

	OutOfServiceArea = "Désolé, cette adresse est hors de notre zone de livraison."

	PharmacyMismatch = "Votre panier contient déjà des produits d'une autre pharmacie. " +
		"Validez ou annulez ce panier avant de commander ailleurs."

	PhotoHint = "Merci pour l'image. Pour envoyer une ordonnance, commandez d'abord un médicament qui en nécessite une."

	UnknownButton = "Cette option n'est plus disponible. Retour au menu principal."

	NoPharmacyForPrescription = "Choisissez d'abord un médicament pour que nous sachions à quelle pharmacie " +
		"transmettre votre ordonnance."

	NoOnDutyPharmacy = "Aucune pharmacie de garde n'est renseignée pour le moment."

	NoDoctor = "Aucun médecin n'est disponible pour le moment."

	AdviceFallback = "Je ne peux pas répondre à cette question pour le moment. " +
		"Pour tout conseil médical, rapprochez-vous d'un pharmacien ou d'un médecin."

	PrescriptionReceived = "Ordonnance reçue ✅. Elle a été transmise à la pharmacie, " +
		"vous serez prévenu dès sa validation."

	PrescriptionRejected = "La pharmacie n'a pas pu valider votre ordonnance. " +
		"Vérifiez qu'elle est lisible, datée et signée, puis renvoyez une photo nette."

	PrescriptionExpired = "La pharmacie n'a pas répondu à temps. Votre ordonnance n'a pas été validée, " +
		"vous pouvez la renvoyer pour une nouvelle demande."

	ReviewAlreadyDone = "Cette ordonnance a déjà été traitée."

	ReviewNotAllowed = "Cette ordonnance est destinée à une autre pharmacie."

	OfferNoLongerValid = "Cette course n'est plus disponible."

	OfferExpired = "Le délai pour accepter cette course est écoulé."

	OfferRefused = "C'est noté, la course est proposée à un autre livreur."

	SearchingCourier = "Nous recherchons un livreur pour votre commande."

	NoCourierAvailable = "Aucun livreur n'est disponible pour l'instant. Nous réessayons automatiquement."

	Unassignable = "Désolé, aucun livreur n'a pu prendre votre commande. Notre service client va vous contacter."

	EnRoute = "Votre livreur a récupéré la commande et est en route 🛵."

	Delivered = "Commande livrée. Merci pour votre confiance !"

	DeliveryStepRecorded = "C'est noté."

	DeliveryStepNotAllowed = "Cette étape ne correspond pas à l'état de la course."

	UnsupportedMessage = "Je ne sais traiter que les messages texte, les photos et les positions."

	AwaitingPrescriptionPhoto = "Nous attendons la photo de votre ordonnance. Tapez ANNULER pour abandonner."
)

// Welcome greets a user seen for the first time.
func Welcome(name string) string {
	if name == "" {
		return "Bienvenue ! Je suis votre assistant pharmacie : recherche de médicaments, " +
			"pharmacies de garde, livraison et rendez-vous."
	}
	return fmt.Sprintf("Bienvenue %s ! Je suis votre assistant pharmacie : recherche de médicaments, "+
		"pharmacies de garde, livraison et rendez-vous.", name)
}

func NoResults(query string) string {
	return fmt.Sprintf("Aucun résultat pour « %s ». Vérifiez l'orthographe ou essayez un autre nom.", query)
}

// SearchResults lists numbered results followed by the ordering instruction.
func SearchResults(results []conversation.SearchResult) string {
	var b strings.Builder
	b.WriteString("Résultats :\n")
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s - %s (%s)", i+1, r.Name, Money(r.Price), r.PharmacyName)
		if r.RequiresPrescription {
			b.WriteString(" 📄 ordonnance")
		}
		if r.Stock <= 0 {
			b.WriteString(" - rupture")
		}
		b.WriteString("\n")
	}
	b.WriteString("\nPour commander : COMMANDER <numéro> <quantité>")
	return b.String()
}

// Cart renders the cart lines and total.
func Cart(items []conversation.CartItem) string {
	if len(items) == 0 {
		return EmptyCart
	}
	var b strings.Builder
	var total int64
	b.WriteString("🛒 Votre panier :\n")
	for _, item := range items {
		fmt.Fprintf(&b, "- %s x%d : %s\n", item.Name, item.Quantity, Money(item.Amount()))
		total += item.Amount()
	}
	fmt.Fprintf(&b, "Total : %s\n\nTapez VALIDER pour commander ou ANNULER pour vider le panier.", Money(total))
	return b.String()
}

func PrescriptionRequired(medicineName, instructions string) string {
	return fmt.Sprintf("📄 %s nécessite une ordonnance.\n%s", medicineName, instructions)
}

func InsufficientStock(medicineName string, requested, available int) string {
	return fmt.Sprintf("Stock insuffisant pour %s : %d demandé(s), %d disponible(s).", medicineName, requested, available)
}

func OrderAwaitingCourier(orderID kernel.UUID, total, fee int64) string {
	return fmt.Sprintf("Commande %s enregistrée ✅\nTotal : %s (dont livraison %s).\n%s",
		ShortID(orderID), Money(total), Money(fee), SearchingCourier)
}

func OrderAwaitingPrescription(orderID kernel.UUID, total int64) string {
	return fmt.Sprintf("Commande %s enregistrée (%s). Elle sera préparée dès la validation de votre ordonnance.",
		ShortID(orderID), Money(total))
}

func OnDutyPharmacies(pharmacies []catalog.Pharmacy) string {
	var b strings.Builder
	b.WriteString("🏥 Pharmacies de garde :\n")
	for _, p := range pharmacies {
		fmt.Fprintf(&b, "- %s, %s (%s)\n", p.Name, p.Address, p.Phone)
	}
	return strings.TrimRight(b.String(), "\n")
}

func Doctors(doctors []conversation.DoctorChoice) string {
	var b strings.Builder
	b.WriteString("👩‍⚕️ Médecins disponibles :\n")
	for i, d := range doctors {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, d.Name, d.Specialty)
	}
	b.WriteString("\nEnvoyez le numéro du médecin choisi.")
	return b.String()
}

func AppointmentRequested(doctorName, specialty string) string {
	return fmt.Sprintf("Demande de rendez-vous envoyée à %s (%s). Le cabinet vous recontactera.", doctorName, specialty)
}

func PrescriptionApproved(items []conversation.CartItem) string {
	msg := "Votre ordonnance a été validée par la pharmacie ✅."
	if len(items) > 0 {
		msg += "\n" + Cart(items)
	}
	return msg
}

func PharmacyReviewCaption(orderID kernel.UUID, customerID, recognized string) string {
	caption := fmt.Sprintf("Ordonnance pour la commande %s (client %s).", ShortID(orderID), customerID)
	if recognized != "" {
		caption += "\nTexte détecté : " + recognized
	}
	return caption
}

const PharmacyReviewPrompt = "Validez-vous cette ordonnance ?"

func ReviewRecorded(approved bool) string {
	if approved {
		return "Ordonnance validée, le client a été prévenu."
	}
	return "Ordonnance refusée, le client a été prévenu."
}

func CourierOffer(orderID kernel.UUID, pharmacy catalog.Pharmacy, total, fee int64) string {
	return fmt.Sprintf("Nouvelle course %s\nRetrait : %s, %s\nMontant à encaisser : %s (livraison %s)",
		ShortID(orderID), pharmacy.Name, pharmacy.Address, Money(total), Money(fee))
}

func CourierAssigned(courierName, courierPhone string) string {
	return fmt.Sprintf("Votre livreur %s (%s) a accepté la commande.", courierName, courierPhone)
}

func CourierMission(orderID kernel.UUID, delivery *kernel.GeoPoint) string {
	msg := fmt.Sprintf("Course %s confirmée.", ShortID(orderID))
	if delivery != nil {
		msg += fmt.Sprintf("\nLivraison : https://maps.google.com/?q=%.6f,%.6f", delivery.Lat(), delivery.Lng())
	}
	return msg
}

func UnassignableSupport(orderID kernel.UUID, customerID string) string {
	return fmt.Sprintf("⚠️ Commande %s (client %s) : aucun livreur n'a accepté. Intervention requise.",
		orderID.String(), customerID)
}
