package admincli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/shopfront-backend/internal/adminclient"
	"github.com/yungbote/shopfront-backend/internal/pkg/pointers"
	"github.com/yungbote/shopfront-backend/internal/services"
)

// SeedFile is the YAML layout accepted by `shopadmin seed`.
type SeedFile struct {
	Products []SeedProduct `yaml:"products"`
	Banners  []SeedBanner  `yaml:"banners"`
}

type SeedProduct struct {
	Name            string   `yaml:"name"`
	Description     string   `yaml:"description"`
	Category        string   `yaml:"category"`
	Brand           string   `yaml:"brand"`
	Price           int64    `yaml:"price"`
	DiscountPercent int      `yaml:"discount_percent"`
	Stock           int      `yaml:"stock"`
	Images          []string `yaml:"images"`
	Inactive        bool     `yaml:"inactive"`
}

type SeedBanner struct {
	Title    string `yaml:"title"`
	ImageURL string `yaml:"image_url"`
	LinkURL  string `yaml:"link_url"`
	Position int    `yaml:"position"`
	Inactive bool   `yaml:"inactive"`
}

type SeedResult struct {
	ProductsCreated int      `json:"products_created"`
	ProductsSkipped int      `json:"products_skipped"`
	BannersCreated  int      `json:"banners_created"`
	BannersSkipped  int      `json:"banners_skipped"`
	Skipped         []string `json:"skipped,omitempty"`
}

func ParseSeed(r io.Reader) (*SeedFile, error) {
	var sf SeedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		if err == io.EOF {
			return &sf, nil
		}
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, p := range sf.Products {
		if strings.TrimSpace(p.Name) == "" {
			return nil, fmt.Errorf("parse seed: products[%d] has no name", i)
		}
	}
	for i, b := range sf.Banners {
		if strings.TrimSpace(b.Title) == "" {
			return nil, fmt.Errorf("parse seed: banners[%d] has no title", i)
		}
	}
	return &sf, nil
}

func (p SeedProduct) input() services.ProductInput {
	return services.ProductInput{
		Name:            p.Name,
		Description:     p.Description,
		Category:        p.Category,
		Brand:           p.Brand,
		Price:           p.Price,
		DiscountPercent: p.DiscountPercent,
		Stock:           p.Stock,
		Images:          p.Images,
		IsActive:        pointers.Ptr(!p.Inactive),
	}
}

func (b SeedBanner) input() services.BannerInput {
	return services.BannerInput{
		Title:    b.Title,
		ImageURL: b.ImageURL,
		LinkURL:  b.LinkURL,
		Position: b.Position,
		IsActive: pointers.Ptr(!b.Inactive),
	}
}

// Seed creates every product and banner in sf. Products the API rejects with
// 409 already exist and are skipped; banners are matched by title.
func Seed(ctx context.Context, c *adminclient.Client, sf *SeedFile) (*SeedResult, error) {
	res := &SeedResult{}
	for _, p := range sf.Products {
		if _, err := c.CreateProduct(ctx, p.input()); err != nil {
			if adminclient.IsConflict(err) {
				res.ProductsSkipped++
				res.Skipped = append(res.Skipped, "product "+p.Name)
				continue
			}
			return res, fmt.Errorf("create product %q: %w", p.Name, err)
		}
		res.ProductsCreated++
	}

	if len(sf.Banners) == 0 {
		return res, nil
	}
	existing, err := c.ListBanners(ctx)
	if err != nil {
		return res, fmt.Errorf("list banners: %w", err)
	}
	titles := make(map[string]bool, len(existing))
	for _, b := range existing {
		titles[strings.ToLower(strings.TrimSpace(b.Title))] = true
	}
	for _, b := range sf.Banners {
		key := strings.ToLower(strings.TrimSpace(b.Title))
		if titles[key] {
			res.BannersSkipped++
			res.Skipped = append(res.Skipped, "banner "+b.Title)
			continue
		}
		if _, err := c.CreateBanner(ctx, b.input()); err != nil {
			if adminclient.IsConflict(err) {
				res.BannersSkipped++
				res.Skipped = append(res.Skipped, "banner "+b.Title)
				continue
			}
			return res, fmt.Errorf("create banner %q: %w", b.Title, err)
		}
		titles[key] = true
		res.BannersCreated++
	}
	return res, nil
}

func (cli *CLI) seedCmd() *cobra.Command {
	var file string
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create products and banners from a YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()
			sf, err := ParseSeed(f)
			if err != nil {
				return err
			}
			if dryRun {
				cli.printf("would create %d products and %d banners\n", len(sf.Products), len(sf.Banners))
				return nil
			}

			c, err := cli.client()
			if err != nil {
				return err
			}
			res, err := Seed(cmd.Context(), c, sf)
			if res != nil && cli.jsonOutput {
				if perr := cli.printJSON(res); perr != nil {
					return perr
				}
			} else if res != nil {
				cli.printf("products: %d created, %d skipped\n", res.ProductsCreated, res.ProductsSkipped)
				cli.printf("banners:  %d created, %d skipped\n", res.BannersCreated, res.BannersSkipped)
				for _, s := range res.Skipped {
					cli.printf("  skipped %s (already exists)\n", s)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "seed YAML file")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "parse the file without calling the API")
	return cmd
}
