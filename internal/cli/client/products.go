package client

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Product represents one catalog entry in API responses.
type Product struct {
	SKU      string  `json:"sku"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Unit     string  `json:"unit"`
}

// ProductListResponse represents the product list API response.
type ProductListResponse struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

// CatalogStatus represents the catalog status API response.
type CatalogStatus struct {
	ServiceAvailable bool   `json:"serviceAvailable"`
	ProductCount     int    `json:"productCount"`
	LastRefresh      string `json:"lastRefresh"`
	LastError        string `json:"lastError,omitempty"`
	TTLSeconds       int    `json:"ttlSeconds"`
}

// ProductsCmd creates the products command group.
func ProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse the product catalog",
	}

	cmd.AddCommand(ProductsListCmd())
	cmd.AddCommand(ProductsStatusCmd())
	cmd.AddCommand(ProductsRefreshCmd())

	return cmd
}

// ProductsListCmd creates the products list command.
func ProductsListCmd() *cobra.Command {
	var (
		category string
		search   string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog products",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputJSON, _ := cmd.Flags().GetBool("json")
			return runProductsList(category, search, outputJSON)
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "Filter by category")
	cmd.Flags().StringVarP(&search, "search", "s", "", "Filter by keyword")
	cmd.Flags().Bool("json", false, "Output raw JSON")

	return cmd
}

func runProductsList(category, search string, outputJSON bool) error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	path := "/api/products/?category=" + category + "&search=" + search
	resp, err := api.Get(path)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	var listResp ProductListResponse
	if err := json.Unmarshal(resp.Data, &listResp); err != nil {
		return fmt.Errorf("failed to parse products: %w", err)
	}

	if outputJSON {
		output, _ := json.MarshalIndent(listResp, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if listResp.Total == 0 {
		fmt.Println("No products found")
		return nil
	}

	fmt.Printf("%d product(s):\n", listResp.Total)
	for _, p := range listResp.Products {
		fmt.Printf("  %-14s %-40s $%8.2f  %s\n", p.SKU, p.Name, p.Price, p.Category)
	}

	return nil
}

// ProductsStatusCmd creates the products status command.
func ProductsStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show catalog cache status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductsStatus()
		},
	}
}

func runProductsStatus() error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Get("/api/products/status")
	if err != nil {
		return fmt.Errorf("failed to get catalog status: %w", err)
	}

	var status CatalogStatus
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return fmt.Errorf("failed to parse status: %w", err)
	}

	fmt.Printf("Service available: %t\n", status.ServiceAvailable)
	fmt.Printf("Products cached:   %d\n", status.ProductCount)
	fmt.Printf("Last refresh:      %s\n", status.LastRefresh)
	fmt.Printf("TTL:               %ds\n", status.TTLSeconds)
	if status.LastError != "" {
		fmt.Printf("Last error:        %s\n", status.LastError)
	}

	return nil
}

// ProductsRefreshCmd creates the products refresh command.
func ProductsRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Force a catalog cache refresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProductsRefresh()
		},
	}
}

func runProductsRefresh() error {
	api, err := NewAPIClient()
	if err != nil {
		return err
	}

	resp, err := api.Post("/api/products/refresh", nil)
	if err != nil {
		return fmt.Errorf("refresh failed: %w", err)
	}

	var status CatalogStatus
	if err := json.Unmarshal(resp.Data, &status); err != nil {
		return fmt.Errorf("failed to parse status: %w", err)
	}

	fmt.Printf("Catalog refreshed: %d products\n", status.ProductCount)
	return nil
}
