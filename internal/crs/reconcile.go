package crs

import (
	"fmt"

	"github.com/oneka/sitewatch/internal/aoi"
	"github.com/oneka/sitewatch/internal/geoerr"
)

// Source tags how the comparison CRS for a raster was established.
type Source int

const (
	// SourceDeclared means the raster declares its own CRS.
	SourceDeclared Source = iota
	// SourceGCP means the CRS comes from the raster's ground control points.
	SourceGCP
	// SourceAssumed means the configured assumed CRS was applied.
	SourceAssumed
	// SourceUnaligned means no CRS was established and the AOI is used as-is.
	SourceUnaligned
)

func (s Source) String() string {
	switch s {
	case SourceDeclared:
		return "declared"
	case SourceGCP:
		return "gcp"
	case SourceAssumed:
		return "assumed"
	case SourceUnaligned:
		return "unaligned"
	default:
		return "unknown"
	}
}

// Facts are the inputs of the reconciliation decision for one raster.
type Facts struct {
	// DeclaredCRS is the CRS stored in the raster itself.
	DeclaredCRS string
	// GCPCRS is the CRS of the raster's ground control points, set only when
	// the GCPs were usable for georeferencing.
	GCPCRS string
	// AOICRS is the CRS declared by the AOI source.
	AOICRS string
	// AssumedCRS is the configured fallback for rasters without any CRS.
	AssumedCRS string
	// AllowUnaligned permits continuing without reprojection.
	AllowUnaligned bool
	// Raster names the raster in error messages.
	Raster string
}

// Decision is the outcome of reconciliation.
type Decision struct {
	Source Source
	// TargetCRS is the CRS the AOI must be expressed in. Empty for
	// SourceUnaligned.
	TargetCRS string
	Warnings  []string
}

// Decide resolves the comparison CRS for a raster. The order is: declared CRS,
// GCP CRS, assumed CRS, no reprojection.
func Decide(f Facts) (Decision, error) {
	switch {
	case f.DeclaredCRS != "":
		if f.AOICRS == "" {
			return Decision{}, geoerr.New(geoerr.KindCRSResolution,
				"crs: AOI has no CRS; cannot reproject it into %s declared by %s", Label(f.DeclaredCRS), f.Raster)
		}
		return Decision{Source: SourceDeclared, TargetCRS: f.DeclaredCRS}, nil

	case f.GCPCRS != "":
		if f.AOICRS == "" {
			return Decision{}, geoerr.New(geoerr.KindCRSResolution,
				"crs: AOI has no CRS; cannot reproject it into GCP CRS %s of %s", Label(f.GCPCRS), f.Raster)
		}
		return Decision{
			Source:    SourceGCP,
			TargetCRS: f.GCPCRS,
			Warnings:  []string{GCPWarning(f.GCPCRS)},
		}, nil

	case f.AOICRS == "":
		return Decision{}, geoerr.New(geoerr.KindCRSResolution,
			"crs: AOI CRS is missing and raster CRS is also missing for %s; cannot align coordinates", f.Raster)

	case f.AssumedCRS != "":
		return Decision{
			Source:    SourceAssumed,
			TargetCRS: f.AssumedCRS,
			Warnings:  []string{fmt.Sprintf("Raster CRS is missing. Assumed raster CRS: %s", Label(f.AssumedCRS))},
		}, nil

	case f.AllowUnaligned:
		return Decision{
			Source: SourceUnaligned,
			Warnings: []string{
				"Raster CRS is missing. AOI was not reprojected; overlap depends on already matching coordinates.",
			},
		}, nil

	default:
		return Decision{}, geoerr.New(geoerr.KindCRSResolution,
			"crs: %s has no CRS or usable GCPs and no assumed raster CRS is configured", f.Raster)
	}
}

// GCPWarning is the warning recorded when georeferencing comes from GCPs.
func GCPWarning(gcpCRS string) string {
	return fmt.Sprintf("Dataset CRS missing; used GCP georeferencing in %s.", Label(gcpCRS))
}

// Align applies a decision to the AOI.
func Align(a *aoi.AOI, d Decision, p Projector) (*aoi.AOI, error) {
	if d.Source == SourceUnaligned || d.TargetCRS == "" {
		return a, nil
	}
	return Reproject(a, d.TargetCRS, p)
}

// Resolution bundles an aligned AOI with the decision that produced it.
type Resolution struct {
	AOI      *aoi.AOI
	Decision Decision
}

// CRS returns the CRS the AOI and raster are compared in ("" when unaligned).
func (r Resolution) CRS() string {
	return r.Decision.TargetCRS
}

// Resolve decides and aligns in one step.
func Resolve(a *aoi.AOI, f Facts, p Projector) (Resolution, error) {
	f.AOICRS = a.CRS
	d, err := Decide(f)
	if err != nil {
		return Resolution{}, err
	}
	aligned, err := Align(a, d, p)
	if err != nil {
		return Resolution{}, err
	}
	return Resolution{AOI: aligned, Decision: d}, nil
}
