package kroger

// Modality is the fulfillment method for cart items.
type Modality string

const (
	ModalityDelivery Modality = "DELIVERY"
	ModalityPickup   Modality = "PICKUP"
)

// Location is a store location as returned by the locations endpoint.
type Location struct {
	LocationID string  `json:"locationId"`
	Name       string  `json:"name"`
	Address    Address `json:"address"`
}

// Address is the subset of location address fields the CLI reports.
type Address struct {
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
}

// Product is a product search hit.
type Product struct {
	ProductID   string `json:"productId"`
	UPC         string `json:"upc"`
	Description string `json:"description"`
}

// CartItem is one entry in a cart-add request.
type CartItem struct {
	UPC      string `json:"upc"`
	Quantity int    `json:"quantity"`
}

type locationsResponse struct {
	Data []Location `json:"data"`
}

type productsResponse struct {
	Data []Product `json:"data"`
}

type cartAddRequest struct {
	Items    []CartItem `json:"items"`
	Modality Modality   `json:"modality"`
}
