// Package transport provides HTTP request/response types for the market domain.
package transport

import (
	"github.com/petmint/petmint/internal/market/domain"
)

// ListRequest is the HTTP request body for listing a pet for sale.
type ListRequest struct {
	Owner string `json:"owner"`
	PetID string `json:"petId"`
	Price string `json:"price"`
}

// ToDomain converts ListRequest to domain.ListRequest.
func (r ListRequest) ToDomain() domain.ListRequest {
	return domain.ListRequest{Owner: r.Owner, PetID: r.PetID, Price: r.Price}
}

// DelistRequest is the HTTP request body for withdrawing a pet from sale.
type DelistRequest struct {
	Owner string `json:"owner"`
	PetID string `json:"petId"`
}

// ToDomain converts DelistRequest to domain.DelistRequest.
func (r DelistRequest) ToDomain() domain.DelistRequest {
	return domain.DelistRequest{Owner: r.Owner, PetID: r.PetID}
}

// BuyRequest is the HTTP request body for settling a purchase.
type BuyRequest struct {
	Buyer  string `json:"buyer"`
	PetID  string `json:"petId"`
	TxHash string `json:"txHash"`
}

// ToDomain converts BuyRequest to domain.BuyRequest.
func (r BuyRequest) ToDomain() domain.BuyRequest {
	return domain.BuyRequest{Buyer: r.Buyer, PetID: r.PetID, TxHash: r.TxHash}
}

// PetResponse is the HTTP representation of a pet.
type PetResponse struct {
	ID        string `json:"id"`
	Upper     string `json:"upper"`
	Face      string `json:"face"`
	Down      string `json:"down"`
	Color     string `json:"color"`
	Owner     string `json:"owner"`
	ForSale   bool   `json:"forSale"`
	Price     string `json:"price"`
	Image     string `json:"image,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// FromDomain converts a domain pet to its HTTP representation.
func FromDomain(p *domain.Pet) PetResponse {
	return PetResponse{
		ID:        p.ID,
		Upper:     p.Upper,
		Face:      p.Face,
		Down:      p.Down,
		Color:     p.Color,
		Owner:     p.Owner,
		ForSale:   p.ForSale,
		Price:     p.Price,
		Image:     p.Image,
		CreatedAt: p.CreatedAt,
	}
}

// FromDomainList converts a slice of domain pets.
func FromDomainList(pets []domain.Pet) []PetResponse {
	out := make([]PetResponse, len(pets))
	for i := range pets {
		out[i] = FromDomain(&pets[i])
	}
	return out
}
