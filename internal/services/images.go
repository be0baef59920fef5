package services

import "sellerhub/internal/domain"

// BuildImages binds a batch of uploads to a product, preserving order. The
// first record is the product's primary image.
func BuildImages(productID, creatorID string, uploads []domain.ImageUpload) []domain.ProductImage {
	out := make([]domain.ProductImage, 0, len(uploads))
	for _, u := range uploads {
		out = append(out, domain.ProductImage{
			ProductID:     productID,
			Name:          u.OriginalName,
			BlobReference: u.StoragePath,
			CreatorID:     creatorID,
		})
	}
	return out
}

// primaryImage is the reference of the first upload, or nil for none.
func primaryImage(uploads []domain.ImageUpload) *string {
	if len(uploads) == 0 {
		return nil
	}
	ref := uploads[0].StoragePath
	return &ref
}
