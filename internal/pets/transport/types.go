// Package transport provides HTTP request/response types for the pets domain.
package transport

import (
	"github.com/petmint/petmint/internal/pets/domain"
)

// CreateRequest is the HTTP request body for minting a pet.
type CreateRequest struct {
	Owner  string `json:"owner"`
	TxHash string `json:"txHash,omitempty"`
}

// ToDomain converts CreateRequest to domain.CreateRequest.
func (r CreateRequest) ToDomain() domain.CreateRequest {
	return domain.CreateRequest{Owner: r.Owner, TxHash: r.TxHash}
}

// MergeRequest is the HTTP request body for merging two pets.
type MergeRequest struct {
	Owner  string `json:"owner"`
	PetID1 string `json:"petId1"`
	PetID2 string `json:"petId2"`
}

// ToDomain converts MergeRequest to domain.MergeRequest.
func (r MergeRequest) ToDomain() domain.MergeRequest {
	return domain.MergeRequest{Owner: r.Owner, FirstID: r.PetID1, SecondID: r.PetID2}
}

// DeleteRequest is the HTTP request body for retiring a pet.
type DeleteRequest struct {
	Owner string `json:"owner"`
	PetID string `json:"petId"`
}

// ToDomain converts DeleteRequest to domain.DeleteRequest.
func (r DeleteRequest) ToDomain() domain.DeleteRequest {
	return domain.DeleteRequest{Owner: r.Owner, PetID: r.PetID}
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
