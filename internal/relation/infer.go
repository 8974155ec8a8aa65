// Package relation infers ORM relationships from foreign key, primary key and
// unique constraint flags.
//
// Relationships reference other tables by name only. Names are resolved to
// tables for the duration of a single Infer call and never stored as pointers.
package relation

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tordrt/schemagraph/internal/naming"
	"github.com/tordrt/schemagraph/internal/schema"
	"github.com/tordrt/schemagraph/internal/typemap"
)

// Inferencer builds bidirectional relationships between tables
type Inferencer struct {
	inflector naming.Inflector
	mapper    typemap.Mapper
	logger    *zap.Logger
}

// Option configures an Inferencer
type Option func(*Inferencer)

// WithInflector replaces the default suffix-rule inflector
func WithInflector(in naming.Inflector) Option {
	return func(i *Inferencer) { i.inflector = in }
}

// WithTypeMapper sets the mapper used to fill Column.MappedType
func WithTypeMapper(m typemap.Mapper) Option {
	return func(i *Inferencer) { i.mapper = m }
}

// WithLogger sets the logger for skipped references
func WithLogger(l *zap.Logger) Option {
	return func(i *Inferencer) { i.logger = l }
}

// New creates an Inferencer. By default it uses the suffix-rule inflector,
// the Go type mapper and a no-op logger.
func New(opts ...Option) *Inferencer {
	i := &Inferencer{
		inflector: naming.SuffixInflector{},
		mapper:    typemap.Go(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Infer runs New().Infer with default options
func Infer(tables []schema.Table) ([]schema.Table, []schema.Diagnostic) {
	return New().Infer(tables)
}

// Infer returns a copy of tables with derived names filled in, join tables
// flagged and relationships attached. Existing relationships and join flags
// on the input are discarded, so the result depends only on names and column
// flags. The input slice is not modified.
//
// Foreign keys whose referenced table is missing are skipped and reported in
// the returned diagnostics.
func (i *Inferencer) Infer(tables []schema.Table) ([]schema.Table, []schema.Diagnostic) {
	out := schema.CloneTables(tables)

	index := make(map[string]int, len(out))
	for n := range out {
		out[n].Relationships = nil
		out[n].IsJoinTable = false
		i.prepare(&out[n])
		if _, dup := index[out[n].Name]; !dup {
			index[out[n].Name] = n
		}
	}

	var diags []schema.Diagnostic
	for n := range out {
		fkCols := out[n].ForeignKeys()

		if IsJoinTable(len(out[n].Columns), len(fkCols)) {
			out[n].IsJoinTable = true
			diags = append(diags, i.linkJoinTable(out, index, n, fkCols)...)
			continue
		}

		for _, col := range fkCols {
			if d, ok := i.linkForeignKey(out, index, n, col); !ok {
				diags = append(diags, d)
			}
		}
	}

	for _, d := range diags {
		i.logger.Debug("relationship skipped",
			zap.String("kind", string(d.Kind)),
			zap.String("table", d.Table),
			zap.String("column", d.Column),
			zap.String("detail", d.Detail))
	}

	return out, diags
}

// prepare fills the derived names and mapped types of a table
func (i *Inferencer) prepare(t *schema.Table) {
	t.ClassName = naming.ClassName(t.Name)
	for c := range t.Columns {
		col := &t.Columns[c]
		col.FieldName = naming.FieldName(col.Name)
		if col.MappedType == "" && i.mapper != nil {
			col.MappedType = i.mapper.Map(col.Type)
		}
	}
}

// linkJoinTable emits the MANY_TO_MANY pair between the tables referenced by
// the first two foreign keys of the join table at n
func (i *Inferencer) linkJoinTable(tables []schema.Table, index map[string]int, n int, fkCols []schema.Column) []schema.Diagnostic {
	join := &tables[n]
	fk1, fk2 := fkCols[0], fkCols[1]

	var diags []schema.Diagnostic
	for _, extra := range fkCols[2:] {
		diags = append(diags, schema.Diagnostic{
			Kind:   schema.ExtraJoinForeignKey,
			Table:  join.Name,
			Column: extra.Name,
			Detail: "only the first two foreign keys of a join table are modeled",
		})
	}

	i1, ok1 := index[fk1.ReferencedTable]
	i2, ok2 := index[fk2.ReferencedTable]
	if !ok1 || !ok2 {
		missing := fk1
		if ok1 {
			missing = fk2
		}
		return append(diags, unresolved(join.Name, missing))
	}

	// Capture names before appending: i1 and i2 may be the same table.
	t1Name, t1Class := tables[i1].Name, tables[i1].ClassName
	t2Name, t2Class := tables[i2].Name, tables[i2].ClassName

	tables[i1].Relationships = append(tables[i1].Relationships, schema.Relationship{
		Type:            schema.ManyToMany,
		SourceTable:     t1Name,
		TargetTable:     t2Name,
		SourceColumn:    fk1.Name,
		TargetColumn:    fk2.ReferencedColumn,
		JoinTable:       join.Name,
		FieldName:       naming.CollectionField(i.inflector, t2Name),
		TargetClassName: t2Class,
	})
	tables[i2].Relationships = append(tables[i2].Relationships, schema.Relationship{
		Type:            schema.ManyToMany,
		SourceTable:     t2Name,
		TargetTable:     t1Name,
		SourceColumn:    fk2.Name,
		TargetColumn:    fk1.ReferencedColumn,
		JoinTable:       join.Name,
		FieldName:       naming.CollectionField(i.inflector, t1Name),
		TargetClassName: t1Class,
	})

	return diags
}

// linkForeignKey emits the MANY_TO_ONE relationship for col on the table at n
// and its inverse on the referenced table. A unique foreign key turns both
// sides into ONE_TO_ONE.
func (i *Inferencer) linkForeignKey(tables []schema.Table, index map[string]int, n int, col schema.Column) (schema.Diagnostic, bool) {
	r, ok := index[col.ReferencedTable]
	if !ok {
		return unresolved(tables[n].Name, col), false
	}

	childName, childClass := tables[n].Name, tables[n].ClassName
	refName, refClass := tables[r].Name, tables[r].ClassName

	owning := schema.Relationship{
		Type:            schema.ManyToOne,
		SourceTable:     childName,
		TargetTable:     refName,
		SourceColumn:    col.Name,
		TargetColumn:    col.ReferencedColumn,
		FieldName:       naming.EntityField(i.inflector, refName),
		TargetClassName: refClass,
	}
	inverse := schema.Relationship{
		Type:            schema.OneToMany,
		SourceTable:     refName,
		TargetTable:     childName,
		SourceColumn:    col.ReferencedColumn,
		TargetColumn:    col.Name,
		MappedBy:        owning.FieldName,
		FieldName:       naming.CollectionField(i.inflector, childName),
		TargetClassName: childClass,
	}

	if col.Unique {
		owning.Type = schema.OneToOne
		inverse.Type = schema.OneToOne
		inverse.FieldName = naming.EntityField(i.inflector, childName)
	}

	tables[n].Relationships = append(tables[n].Relationships, owning)
	tables[r].Relationships = append(tables[r].Relationships, inverse)
	return schema.Diagnostic{}, true
}

func unresolved(table string, col schema.Column) schema.Diagnostic {
	return schema.Diagnostic{
		Kind:   schema.UnresolvedReference,
		Table:  table,
		Column: col.Name,
		Detail: fmt.Sprintf("referenced table %q not found", col.ReferencedTable),
	}
}
