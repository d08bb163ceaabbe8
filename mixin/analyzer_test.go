package mixin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/jar-remapper/classfile"
	"github.com/wippyai/jar-remapper/internal/classtest"
	"github.com/wippyai/jar-remapper/mixin"
)

const mixinDesc = "Lorg/spongepowered/asm/mixin/Mixin;"

func parse(t *testing.T, b *classtest.Builder) *classfile.ClassFile {
	t.Helper()
	cf, err := classfile.Parse(b.Bytes())
	require.NoError(t, err)
	return cf
}

func TestTargets(t *testing.T) {
	tests := []struct {
		name  string
		class *classtest.Builder
		want  []string
	}{
		{
			name: "invisible mixin annotation",
			class: classtest.New("m/A").Annotation(false, mixinDesc,
				classtest.Element("value", classtest.ArrayValue(classtest.ClassValue("t/T2"), classtest.ClassValue("t/T1")))),
			want: []string{"t/T1", "t/T2"},
		},
		{
			name: "visible annotation counts too",
			class: classtest.New("m/B").Annotation(true, "Lsome/Other;",
				classtest.Element("value", classtest.ArrayValue(classtest.ClassValue("t/T")))),
			want: []string{"t/T"},
		},
		{
			name: "targets merge across annotations",
			class: classtest.New("m/C").
				Annotation(false, mixinDesc, classtest.Element("value", classtest.ArrayValue(classtest.ClassValue("t/T1")))).
				Annotation(true, "Lx/Y;", classtest.Element("value", classtest.ArrayValue(classtest.ClassValue("t/T1"), classtest.ClassValue("t/T3")))),
			want: []string{"t/T1", "t/T3"},
		},
		{
			name:  "no annotations",
			class: classtest.New("m/D"),
		},
		{
			name: "scalar value is ignored",
			class: classtest.New("m/E").Annotation(false, mixinDesc,
				classtest.Element("value", classtest.ClassValue("t/T"))),
		},
		{
			name: "other array attribute is ignored",
			class: classtest.New("m/F").Annotation(false, mixinDesc,
				classtest.Element("targets", classtest.ArrayValue(classtest.ClassValue("t/T")))),
		},
		{
			name: "strings inside value are ignored",
			class: classtest.New("m/G").Annotation(false, mixinDesc,
				classtest.Element("value", classtest.ArrayValue(classtest.StringValue("t.T")))),
		},
		{
			name: "nested annotations are ignored",
			class: classtest.New("m/H").Annotation(false, "Lx/Outer;",
				classtest.Element("inner", classtest.AnnotationValue(mixinDesc,
					classtest.Element("value", classtest.ArrayValue(classtest.ClassValue("t/T")))))),
		},
	}

	a := mixin.NewAnalyzer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Targets(parse(t, tt.class))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAllowlist(t *testing.T) {
	cf := parse(t, classtest.New("m/A").
		Annotation(true, "Lx/Lookalike;", classtest.Element("value", classtest.ArrayValue(classtest.ClassValue("t/Wrong")))).
		Annotation(false, mixinDesc, classtest.Element("value", classtest.ArrayValue(classtest.ClassValue("t/Right")))))

	for _, allow := range []string{mixinDesc, "org/spongepowered/asm/mixin/Mixin", "org.spongepowered.asm.mixin.Mixin"} {
		got, err := mixin.NewAnalyzer(allow).Targets(cf)
		require.NoError(t, err)
		assert.Equal(t, []string{"t/Right"}, got, allow)
	}

	got, err := mixin.NewAnalyzer("Lnot/Present;").Targets(cf)
	require.NoError(t, err)
	assert.Empty(t, got)
}
