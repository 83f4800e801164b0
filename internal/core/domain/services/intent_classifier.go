package services

import (
	"errors"
	"strconv"
	"strings"

	"pharmadelivery/internal/pkg/textnorm"
)

// IntentKind enumerates what a free-text message asks for.
type IntentKind int

const (
	// IntentAdvice is the fallback: the text goes to the language model.
	IntentAdvice IntentKind = iota
	IntentGreeting
	IntentSearch
	IntentOnDuty
	IntentAppointment
	IntentOrderSelection
	IntentCheckout
	IntentViewCart
	IntentCancel
	IntentNumber
)

func (k IntentKind) String() string {
	switch k {
	case IntentAdvice:
		return "advice"
	case IntentGreeting:
		return "greeting"
	case IntentSearch:
		return "search"
	case IntentOnDuty:
		return "on_duty"
	case IntentAppointment:
		return "appointment"
	case IntentOrderSelection:
		return "order_selection"
	case IntentCheckout:
		return "checkout"
	case IntentViewCart:
		return "view_cart"
	case IntentCancel:
		return "cancel"
	case IntentNumber:
		return "number"
	default:
		return "unknown"
	}
}

// MaxQuantity bounds every number a message may carry, line or quantity.
const MaxQuantity = 100

// Intent is the classified meaning of a message. Query holds the search
// terms (or the whole text for advice); Numbers holds parsed integers, e.g.
// [line, quantity] for "COMMANDER 1 2". An order selection with a malformed
// line or quantity carries no numbers.
type Intent struct {
	Kind    IntentKind
	Query   string
	Numbers []int
}

// IntentClassifier maps free text to an Intent.
type IntentClassifier interface {
	Classify(text string) Intent
}

var _ IntentClassifier = KeywordClassifier{}

// KeywordClassifier classifies French chat messages with keyword rules on
// accent- and case-folded text. Rules are tried in order; the first match wins.
type KeywordClassifier struct{}

func NewKeywordClassifier() KeywordClassifier {
	return KeywordClassifier{}
}

var (
	greetingWords    = []string{"bonjour", "bonsoir", "salut", "hello", "coucou", "hi", "menu", "start"}
	onDutyWords      = []string{"garde", "ouverte", "ouvert maintenant", "de nuit"}
	appointmentWords = []string{"rendez-vous", "rendez vous", "rdv", "medecin", "docteur", "consultation"}
	articles         = []string{"du", "de", "des", "le", "la", "les", "un", "une", "l'"}
	searchPrefixes   = []string{
		"je cherche ", "je veux ", "je voudrais ", "chercher ", "cherche ", "recherche ",
		"avez-vous ", "avez vous ", "vous avez ", "prix du ", "prix de ", "prix ", "medicament ",
	}
)

func (KeywordClassifier) Classify(text string) Intent {
	folded := textnorm.Fold(text)
	if folded == "" {
		return Intent{Kind: IntentAdvice}
	}
	fields := strings.Fields(folded)

	switch fields[0] {
	case "commander", "commande":
		if len(fields) > 1 && isInteger(fields[1]) {
			return Intent{Kind: IntentOrderSelection, Numbers: orderSelection(fields[1:])}
		}
	case "valider", "valide", "confirmer":
		return Intent{Kind: IntentCheckout}
	case "panier":
		return Intent{Kind: IntentViewCart}
	case "annuler", "stop", "vider":
		return Intent{Kind: IntentCancel}
	}

	if numbers := parseNumbers(fields); len(numbers) == len(fields) {
		return Intent{Kind: IntentNumber, Numbers: numbers}
	}

	if containsWord(fields, greetingWords) && len(fields) <= 3 {
		return Intent{Kind: IntentGreeting}
	}
	if containsAny(folded, onDutyWords) {
		return Intent{Kind: IntentOnDuty}
	}
	if containsAny(folded, appointmentWords) {
		return Intent{Kind: IntentAppointment}
	}

	for _, prefix := range searchPrefixes {
		if query, ok := strings.CutPrefix(folded, prefix); ok {
			if query = stripArticles(query); query != "" {
				return Intent{Kind: IntentSearch, Query: query}
			}
		}
	}

	return Intent{Kind: IntentAdvice, Query: strings.TrimSpace(text)}
}

// stripArticles drops leading French articles: "du paracetamol" -> "paracetamol".
func stripArticles(query string) string {
	fields := strings.Fields(query)
	for len(fields) > 1 && containsWord(fields[:1], articles) {
		fields = fields[1:]
	}
	return strings.Join(fields, " ")
}

// parseNumbers returns the leading run of integers in fields within [1, MaxQuantity].
func parseNumbers(fields []string) []int {
	var numbers []int
	for _, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n <= 0 || n > MaxQuantity {
			break
		}
		numbers = append(numbers, n)
	}
	return numbers
}

// orderSelection parses "<line> [quantity]"; the quantity defaults to 1.
// It returns nil when either value is present but out of range or not a number.
func orderSelection(args []string) []int {
	if len(args) > 2 {
		args = args[:2]
	}
	numbers := parseNumbers(args)
	if len(numbers) != len(args) {
		return nil
	}
	if len(numbers) == 1 {
		numbers = append(numbers, 1)
	}
	return numbers
}

func isInteger(f string) bool {
	_, err := strconv.Atoi(f)
	return err == nil || errors.Is(err, strconv.ErrRange)
}

func containsWord(fields, words []string) bool {
	for _, f := range fields {
		for _, w := range words {
			if f == w {
				return true
			}
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
