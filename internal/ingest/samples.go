package ingest

import "github.com/simri/simri/internal/mri"

// SamplePatient is a pre-staged demo case whose modality files already
// live in the bucket. Ingesting a sample reuses the declared references
// without writing any object.
type SamplePatient struct {
	PatientID   string           `json:"patientId"`
	DisplayName string           `json:"displayName"`
	Clinical    mri.ClinicalData `json:"clinicalData"`
	StorageKeys mri.ModalityRefs `json:"storageKeys"`
}

var samplePatients = []SamplePatient{
	{
		PatientID:   "Sample_Patient1",
		DisplayName: "Sample Patient 1 (GBM)",
		Clinical: mri.ClinicalData{
			Age:       58,
			Sex:       mri.SexMale,
			Diagnosis: "Glioblastoma",
		},
		StorageKeys: mri.ModalityRefs{
			mri.T1c: "patients/Sample_Patient1/t1c-BraTS-GLI-00138-000-t1c.nii.gz",
			mri.T1n: "patients/Sample_Patient1/t1n-BraTS-GLI-00138-000-t1n.nii.gz",
			mri.T2f: "patients/Sample_Patient1/t2f-BraTS-GLI-00138-000-t2f.nii.gz",
			mri.T2w: "patients/Sample_Patient1/t2w-BraTS-GLI-00138-000-t2w.nii.gz",
			mri.Seg: "patients/Sample_Patient1/seg-BraTS-GLI-00138-000-seg.nii.gz",
		},
	},
	{
		PatientID:   "Sample_Patient2",
		DisplayName: "Sample Patient 2 (LGG)",
		Clinical: mri.ClinicalData{
			Age:       45,
			Sex:       mri.SexFemale,
			Diagnosis: "Low-Grade Glioma",
		},
		StorageKeys: mri.ModalityRefs{
			mri.T1c: "patients/Sample_Patient2/t1c-BraTS-GLI-00823-000-t1c.nii.gz",
			mri.T1n: "patients/Sample_Patient2/t1n-BraTS-GLI-00823-000-t1n.nii.gz",
			mri.T2f: "patients/Sample_Patient2/t2f-BraTS-GLI-00823-000-t2f.nii.gz",
			mri.T2w: "patients/Sample_Patient2/t2w-BraTS-GLI-00823-000-t2w.nii.gz",
			mri.Seg: "patients/Sample_Patient2/seg-BraTS-GLI-00823-000-seg.nii.gz",
		},
	},
}

// Samples returns the pre-staged demo catalogue.
func Samples() []SamplePatient {
	out := make([]SamplePatient, len(samplePatients))
	copy(out, samplePatients)
	return out
}

// SampleByID looks up one catalogue entry.
func SampleByID(patientID string) (SamplePatient, bool) {
	for _, sample := range samplePatients {
		if sample.PatientID == patientID {
			return sample, true
		}
	}
	return SamplePatient{}, false
}
