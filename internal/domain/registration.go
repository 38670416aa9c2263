package domain

// Registration holds the participant fields of a form. Values are trimmed
// before validation.
type Registration struct {
	Name        string `json:"name" validate:"required,max=45"`
	DNI         string `json:"dni" validate:"omitempty,max=9,digits"`
	PhoneNumber string `json:"phoneNumber" validate:"required,len=9,digits"`
}

// ClaimPayload is the body sent to the claim endpoint. It can only be built
// once the photo has been stored remotely and PhotoURL is known.
type ClaimPayload struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phoneNumber"`
	DNI         string `json:"dni,omitempty"`
	StoreID     string `json:"storeId"`
	Campaign    string `json:"campaign"`
	PhotoURL    string `json:"photoUrl"`
}

// ClaimResponse is the tolerant shape of the claim endpoint body; every field
// is optional.
type ClaimResponse struct {
	Prize    string `json:"prize,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ClaimResult is the outcome of a successful claim.
type ClaimResult struct {
	PrizeName string `json:"prizeName"`
	PhotoURL  string `json:"photoUrl"`
}

// ThanksForParticipating is the prize name used when the backend awards
// nothing nameable. It has no prize image.
const ThanksForParticipating = "¡Gracias por participar! Contacta a la tienda para más detalles."
