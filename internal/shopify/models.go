package shopify

// REST Admin API resources, trimmed to the fields the sync writes or reads.

type Product struct {
	ID          int64     `json:"id,omitempty"`
	Title       string    `json:"title,omitempty"`
	BodyHTML    string    `json:"body_html,omitempty"`
	Vendor      string    `json:"vendor,omitempty"`
	ProductType string    `json:"product_type,omitempty"`
	Status      string    `json:"status,omitempty"`
	Tags        string    `json:"tags,omitempty"`
	Variants    []Variant `json:"variants,omitempty"`
	Images      []Image   `json:"images,omitempty"`
}

type Variant struct {
	ID              int64  `json:"id,omitempty"`
	ProductID       int64  `json:"product_id,omitempty"`
	SKU             string `json:"sku,omitempty"`
	Option1         string `json:"option1,omitempty"`
	Price           string `json:"price,omitempty"`
	CompareAtPrice  string `json:"compare_at_price,omitempty"`
	InventoryItemID int64  `json:"inventory_item_id,omitempty"`
}

type Image struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src,omitempty"`
}

type CustomCollection struct {
	ID        int64  `json:"id,omitempty"`
	Title     string `json:"title,omitempty"`
	Handle    string `json:"handle,omitempty"`
	BodyHTML  string `json:"body_html,omitempty"`
	Published bool   `json:"published"`
}

type Collect struct {
	ID           int64 `json:"id,omitempty"`
	ProductID    int64 `json:"product_id,omitempty"`
	CollectionID int64 `json:"collection_id,omitempty"`
}

type Metafield struct {
	ID        int64  `json:"id,omitempty"`
	Namespace string `json:"namespace,omitempty"`
	Key       string `json:"key,omitempty"`
	Value     string `json:"value,omitempty"`
	Type      string `json:"type,omitempty"`
}

type Location struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type productsResponse struct {
	Products []Product `json:"products"`
}

type productResponse struct {
	Product Product `json:"product"`
}

type collectionsResponse struct {
	CustomCollections []CustomCollection `json:"custom_collections"`
}

type collectionResponse struct {
	CustomCollection CustomCollection `json:"custom_collection"`
}

type collectsResponse struct {
	Collects []Collect `json:"collects"`
}

type collectResponse struct {
	Collect Collect `json:"collect"`
}

type metafieldsResponse struct {
	Metafields []Metafield `json:"metafields"`
}

type metafieldResponse struct {
	Metafield Metafield `json:"metafield"`
}

type locationsResponse struct {
	Locations []Location `json:"locations"`
}
