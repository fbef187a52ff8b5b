package inventory

// Row is one canonical output record. Fields must return exactly as many
// values as the schema it belongs to has columns.
type Row interface {
	Fields() []string
}

// Schema is the fixed, ordered column set of one report kind.
type Schema struct {
	Name    string
	Columns []string
}

// Width returns the number of columns in the schema.
func (s Schema) Width() int {
	return len(s.Columns)
}

var (
	// VMInventorySchema is the column set of the VM inventory report
	VMInventorySchema = Schema{
		Name: "vm-inventory",
		Columns: []string{
			"cloud",
			"subscription_or_project",
			"resource_group_or_project",
			"vm_name",
			"status",
			"owner",
			"cleardata",
			"environment",
		},
	}

	// PatchStatusSchema is the column set of the Azure needed-patches report
	PatchStatusSchema = Schema{
		Name: "azure-patches",
		Columns: []string{
			"cloud",
			"vm_name",
			"os_type",
			"classification",
			"kb",
			"title",
			"product",
			"time_generated",
		},
	}

	// PackageInventorySchema is the column set of the GCP package inventory report
	PackageInventorySchema = Schema{
		Name: "gcp-packages",
		Columns: []string{
			"cloud",
			"project",
			"zone",
			"vm_name",
			"os_long_name",
			"os_version",
			"package_manager",
			"package_name",
			"package_version",
		},
	}
)

// VMRow is a row of the VM inventory report.
type VMRow struct {
	Cloud                  string
	SubscriptionOrProject  string
	ResourceGroupOrProject string
	Name                   string
	Status                 string
	Owner                  string
	ClearData              string
	Environment            string
}

func (r VMRow) Fields() []string {
	return []string{
		r.Cloud,
		r.SubscriptionOrProject,
		r.ResourceGroupOrProject,
		r.Name,
		r.Status,
		r.Owner,
		r.ClearData,
		r.Environment,
	}
}

// PatchRow is one needed update for one machine.
type PatchRow struct {
	Cloud          string
	VMName         string
	OSType         string
	Classification string
	KB             string
	Title          string
	Product        string
	TimeGenerated  string
}

func (r PatchRow) Fields() []string {
	return []string{
		r.Cloud,
		r.VMName,
		r.OSType,
		r.Classification,
		r.KB,
		r.Title,
		r.Product,
		r.TimeGenerated,
	}
}

// PackageRow is one installed package on one instance.
type PackageRow struct {
	Cloud          string
	Project        string
	Zone           string
	VMName         string
	OSLongName     string
	OSVersion      string
	PackageManager string
	PackageName    string
	PackageVersion string
}

func (r PackageRow) Fields() []string {
	return []string{
		r.Cloud,
		r.Project,
		r.Zone,
		r.VMName,
		r.OSLongName,
		r.OSVersion,
		r.PackageManager,
		r.PackageName,
		r.PackageVersion,
	}
}
