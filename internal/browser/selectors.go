package browser

// Storefront selectors.
const (
	selSearchInput   = `#search_query_top`
	selSearchSubmit  = `button[name="submit_search"]`
	selHeading       = `h1`
	selProduct       = `.product_list .product-container`
	selAddToCart     = `.ajax_add_to_cart_button`
	selCartOverlay   = `.layer_cart_overlay`
	selCartQuantity  = `.ajax_cart_quantity`
	selNoResults     = `.alert-warning`
	homePath         = "/index.php"
	clickAttempts    = 3
	defaultCartWait  = 5
)
