package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/catalog/internal/domain"
	"storefront/catalog/internal/domain/event"
	"storefront/catalog/internal/taxonomy"
)

type fixture struct {
	svc        *TaxonomyService
	attributes *fakeAttributes
	terms      *fakeTerms
	cache      *fakeCache
	publisher  *fakePublisher
}

func newFixture(attrs []domain.Attribute, terms ...domain.Term) *fixture {
	f := &fixture{
		attributes: newFakeAttributes(attrs...),
		terms:      newFakeTerms(terms...),
		cache:      &fakeCache{},
		publisher:  &fakePublisher{},
	}
	f.svc = NewTaxonomyService(f.attributes, f.terms, f.cache, f.publisher)
	return f
}

var (
	category = domain.Attribute{ID: "cat", Name: "Category", SelectionType: domain.SelectionTypeSingle, IsHierarchical: true, IsActive: true}
	roast    = domain.Attribute{ID: "roast", Name: "Roast", SelectionType: domain.SelectionTypeSingle, IsActive: true}
	legacy   = domain.Attribute{ID: "legacy", Name: "Legacy", SelectionType: domain.SelectionTypeSingle, IsActive: false}
)

func TestCreateAttribute(t *testing.T) {
	f := newFixture(nil)

	a, err := f.svc.CreateAttribute(context.Background(), AttributeInput{Name: "  Origin ", IsHierarchical: true})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "Origin", a.Name)
	assert.Equal(t, domain.SelectionTypeSingle, a.SelectionType)
	assert.True(t, a.IsActive)
	assert.Contains(t, f.attributes.items, a.ID)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, &event.TaxonomyChanged{AttributeID: a.ID, Action: "create"}, f.publisher.events[0])
	assert.Equal(t, 1, f.cache.invalidated)
}

func TestCreateAttribute_Validation(t *testing.T) {
	f := newFixture(nil)

	_, err := f.svc.CreateAttribute(context.Background(), AttributeInput{Name: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.CreateAttribute(context.Background(), AttributeInput{Name: "Size", SelectionType: "slider"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Empty(t, f.attributes.items)
	assert.Empty(t, f.publisher.events)
}

func TestUpdateAttribute(t *testing.T) {
	f := newFixture([]domain.Attribute{roast})

	inactive := false
	a, err := f.svc.UpdateAttribute(context.Background(), "roast", domain.AttributeUpdate{IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, a.IsActive)
	assert.Equal(t, "Roast", a.Name)
	assert.Len(t, f.publisher.events, 1)

	blank := " "
	_, err = f.svc.UpdateAttribute(context.Background(), "roast", domain.AttributeUpdate{Name: &blank})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.UpdateAttribute(context.Background(), "missing", domain.AttributeUpdate{IsActive: &inactive})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteAttribute_KeepsTerms(t *testing.T) {
	f := newFixture([]domain.Attribute{roast}, domain.Term{ID: "dark", AttributeID: "roast", Name: "Dark"})

	require.NoError(t, f.svc.DeleteAttribute(context.Background(), "roast"))
	assert.NotContains(t, f.attributes.items, "roast")
	assert.Contains(t, f.terms.items, "dark")

	assert.ErrorIs(t, f.svc.DeleteAttribute(context.Background(), "roast"), domain.ErrNotFound)
}

func TestCreateTerm_ComputesPath(t *testing.T) {
	f := newFixture([]domain.Attribute{category})
	ctx := context.Background()

	coffee, err := f.svc.CreateTerm(ctx, "cat", TermInput{Name: "Coffee"})
	require.NoError(t, err)
	assert.True(t, coffee.IsRoot())
	assert.Equal(t, []string{}, coffee.Path)

	espresso, err := f.svc.CreateTerm(ctx, "cat", TermInput{Name: "Espresso", ParentID: &coffee.ID})
	require.NoError(t, err)
	assert.Equal(t, coffee.ID, espresso.Parent())
	assert.Equal(t, []string{coffee.ID}, espresso.Path)

	single, err := f.svc.CreateTerm(ctx, "cat", TermInput{Name: "Single Origin", ParentID: &espresso.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{coffee.ID, espresso.ID}, single.Path)

	assert.Equal(t, 3, f.terms.writes)
	assert.Len(t, f.publisher.events, 3)
}

func TestCreateTerm_RejectedBeforeWrite(t *testing.T) {
	other := "dark"
	missing := "nope"
	coffee := "coffee"

	tests := []struct {
		name      string
		attribute string
		input     TermInput
		wantErr   error
	}{
		{"empty name", "cat", TermInput{Name: " "}, domain.ErrInvalidInput},
		{"unknown attribute", "ghost", TermInput{Name: "X"}, domain.ErrNotFound},
		{"missing parent", "cat", TermInput{Name: "X", ParentID: &missing}, domain.ErrInvalidParent},
		{"parent from another attribute", "cat", TermInput{Name: "X", ParentID: &other}, domain.ErrInvalidParent},
		{"parent under flat attribute", "roast", TermInput{Name: "X", ParentID: &other}, domain.ErrInvalidParent},
		{"flat attribute with cross parent", "roast", TermInput{Name: "X", ParentID: &coffee}, domain.ErrInvalidParent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture([]domain.Attribute{category, roast},
				domain.Term{ID: "coffee", AttributeID: "cat", Name: "Coffee", Path: []string{}},
				domain.Term{ID: "dark", AttributeID: "roast", Name: "Dark", Path: []string{}},
			)

			_, err := f.svc.CreateTerm(context.Background(), tt.attribute, tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Zero(t, f.terms.writes)
			assert.Empty(t, f.publisher.events)
		})
	}
}

func TestRenameTerm(t *testing.T) {
	f := newFixture([]domain.Attribute{category},
		domain.Term{ID: "coffee", AttributeID: "cat", Name: "Coffee", Path: []string{}})

	term, err := f.svc.RenameTerm(context.Background(), "coffee", "Kahve")
	require.NoError(t, err)
	assert.Equal(t, "Kahve", term.Name)

	_, err = f.svc.RenameTerm(context.Background(), "coffee", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.svc.RenameTerm(context.Background(), "ghost", "X")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteTerm_OrphansSurfaceAsRoots(t *testing.T) {
	coffee := "coffee"
	f := newFixture([]domain.Attribute{category},
		domain.Term{ID: "coffee", AttributeID: "cat", Name: "Coffee", Path: []string{}},
		domain.Term{ID: "espresso", AttributeID: "cat", Name: "Espresso", ParentID: &coffee, Path: []string{"coffee"}},
	)
	ctx := context.Background()

	require.NoError(t, f.svc.DeleteTerm(ctx, "coffee"))
	assert.Contains(t, f.terms.items, "espresso")

	sidebar := f.svc.FilterAttributes(ctx)
	require.Len(t, sidebar, 1)
	require.Len(t, sidebar[0].Terms, 1)
	assert.Equal(t, "espresso", sidebar[0].Terms[0].ID)

	assert.ErrorIs(t, f.svc.DeleteTerm(ctx, "coffee"), domain.ErrNotFound)
}

func TestLoadTaxonomy_UsesCache(t *testing.T) {
	f := newFixture([]domain.Attribute{category, legacy})
	ctx := context.Background()

	first, err := f.svc.LoadTaxonomy(ctx)
	require.NoError(t, err)
	second, err := f.svc.LoadTaxonomy(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.attributes.lists)
	require.Len(t, first.Attributes, 1)
	assert.Equal(t, "cat", first.Attributes[0].ID)
	assert.NotNil(t, first.Terms["cat"])
}

func TestLoadTaxonomy_WriteDuringLoadIsNotCached(t *testing.T) {
	f := newFixture([]domain.Attribute{category}, domain.Term{ID: "coffee", AttributeID: "cat", Name: "Coffee", Path: []string{}})
	ctx := context.Background()

	f.terms.afterList = func() {
		_, err := f.svc.CreateTerm(ctx, "cat", TermInput{Name: "Tea"})
		require.NoError(t, err)
	}

	during, err := f.svc.LoadTaxonomy(ctx)
	require.NoError(t, err)
	assert.Len(t, during.Terms["cat"], 1)
	assert.Nil(t, f.cache.value)

	after, err := f.svc.LoadTaxonomy(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Coffee", "Tea"}, termNames(after.Terms["cat"]))
	assert.Equal(t, after, f.cache.value)
}

func TestLoadSnapshot_FailureIsEmpty(t *testing.T) {
	f := newFixture([]domain.Attribute{category})
	f.attributes.fail = true

	snap := f.svc.LoadSnapshot(context.Background())
	require.NotNil(t, snap)
	assert.Zero(t, snap.Len())
	assert.Empty(t, f.svc.FilterAttributes(context.Background()))

	_, err := f.svc.ProductFormAttributes(context.Background())
	assert.ErrorIs(t, err, errStoreDown)
}

func TestFilterAttributes_TreesAndFlatLists(t *testing.T) {
	coffee := "coffee"
	f := newFixture([]domain.Attribute{category, roast, legacy},
		domain.Term{ID: "coffee", AttributeID: "cat", Name: "Coffee", Path: []string{}},
		domain.Term{ID: "espresso", AttributeID: "cat", Name: "Espresso", ParentID: &coffee, Path: []string{"coffee"}},
		domain.Term{ID: "light", AttributeID: "roast", Name: "Light", Path: []string{}},
		domain.Term{ID: "dark", AttributeID: "roast", Name: "Dark", Path: []string{}},
		domain.Term{ID: "old", AttributeID: "legacy", Name: "Old", Path: []string{}},
	)

	sidebar := f.svc.FilterAttributes(context.Background())
	require.Len(t, sidebar, 2)

	assert.Equal(t, "Category", sidebar[0].Name)
	require.Len(t, sidebar[0].Terms, 1)
	assert.Equal(t, []string{"coffee", "espresso"}, termIDs(taxonomy.Flatten(sidebar[0].Terms)))

	assert.Equal(t, "Roast", sidebar[1].Name)
	assert.Equal(t, []string{"dark", "light"}, termIDs(taxonomy.Flatten(sidebar[1].Terms)))
}

func TestProductFormAttributes_ExcludesInactive(t *testing.T) {
	f := newFixture([]domain.Attribute{roast, legacy},
		domain.Term{ID: "dark", AttributeID: "roast", Name: "Dark", Path: []string{}})

	form, err := f.svc.ProductFormAttributes(context.Background())
	require.NoError(t, err)
	require.Len(t, form, 1)
	assert.Equal(t, "roast", form[0].ID)
	assert.Len(t, form[0].Terms, 1)
}

func TestOnChange(t *testing.T) {
	f := newFixture(nil)

	calls := 0
	cancel := f.svc.OnChange(func() { calls++ })

	data, err := (&event.TaxonomyChanged{AttributeID: "cat", Action: "update"}).EventValue()
	require.NoError(t, err)

	require.NoError(t, f.svc.HandleTaxonomyChanged(context.Background(), data))
	assert.Equal(t, 1, calls)

	cancel()
	require.NoError(t, f.svc.HandleTaxonomyChanged(context.Background(), data))
	assert.Equal(t, 1, calls)

	assert.Error(t, f.svc.HandleTaxonomyChanged(context.Background(), []byte("{")))
}

func termIDs(terms []domain.Term) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		out = append(out, t.ID)
	}
	return out
}

func termNames(terms []domain.Term) []string {
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		names = append(names, t.Name)
	}
	return names
}
